package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lifeboard/internal/apperr"
	"lifeboard/internal/service"
)

func (s *Server) handleListHabits(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") != "false"
	habits, err := s.habitSvc.List(c.Request.Context(), currentUser(c), activeOnly, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"habits": habits, "count": len(habits)})
}

func (s *Server) handleCreateHabit(c *gin.Context) {
	var input service.HabitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid habit payload", err))
		return
	}
	habit, err := s.habitSvc.Create(c.Request.Context(), currentUser(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, habit)
}

func (s *Server) handleUpdateHabit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input service.HabitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid habit payload", err))
		return
	}
	habit, err := s.habitSvc.Update(c.Request.Context(), currentUser(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, habit)
}

// Habits are deactivated, not destroyed; their history stays queryable.
func (s *Server) handleDeactivateHabit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.habitSvc.Deactivate(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleLogHabitEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Date  *time.Time `json:"date"`
		Count *int       `json:"count"`
		Notes string     `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid entry payload", err))
		return
	}
	day := time.Now()
	if body.Date != nil {
		day = *body.Date
	}
	// Omitted count means one completion; an explicit zero is rejected by
	// the service.
	count := 1
	if body.Count != nil {
		count = *body.Count
	}
	entry, err := s.habitSvc.LogEntry(c.Request.Context(), currentUser(c), id, day, count, body.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) handleHabitRegularity(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil {
		respondError(c, apperr.Newf(apperr.KindValidation, "invalid days value %q", c.Query("days")))
		return
	}
	pct, err := s.habitSvc.Regularity(c.Request.Context(), currentUser(c), id, days, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"regularity": pct, "days": days})
}
