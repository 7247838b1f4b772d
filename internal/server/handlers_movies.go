package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lifeboard/internal/apperr"
	"lifeboard/internal/service"
)

func (s *Server) handleSearchMovies(c *gin.Context) {
	results, err := s.movieSvc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func (s *Server) handleListMovies(c *gin.Context) {
	movies, err := s.movieSvc.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movies": movies, "count": len(movies)})
}

func (s *Server) handleAddMovie(c *gin.Context) {
	var input service.MovieInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid movie payload", err))
		return
	}
	movie, err := s.movieSvc.Add(c.Request.Context(), currentUser(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movie)
}

func (s *Server) handleUpdateMovie(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var update service.MovieUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid movie payload", err))
		return
	}
	movie, err := s.movieSvc.Update(c.Request.Context(), currentUser(c), id, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movie)
}

func (s *Server) handleDeleteMovie(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.movieSvc.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
