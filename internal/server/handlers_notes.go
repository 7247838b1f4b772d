package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lifeboard/internal/apperr"
	"lifeboard/internal/service"
)

func (s *Server) handleListNotes(c *gin.Context) {
	notes, err := s.noteSvc.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes, "count": len(notes)})
}

func (s *Server) handleGetNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	note, err := s.noteSvc.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (s *Server) handleCreateNote(c *gin.Context) {
	var input service.NoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid note payload", err))
		return
	}
	note, err := s.noteSvc.Create(c.Request.Context(), currentUser(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (s *Server) handleUpdateNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input service.NoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid note payload", err))
		return
	}
	note, err := s.noteSvc.Update(c.Request.Context(), currentUser(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

func (s *Server) handleDeleteNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.noteSvc.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleNoteTrash(c *gin.Context) {
	notes, err := s.noteSvc.ListTrash(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes, "count": len(notes)})
}

func (s *Server) handleRestoreNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.noteSvc.Restore(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Decryption failures come back as a bad request scoped to the password
// field; they never take the whole notes view down.
func (s *Server) handleDecryptNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid payload", err))
		return
	}
	plain, err := s.noteSvc.Decrypt(c.Request.Context(), currentUser(c), id, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": plain})
}
