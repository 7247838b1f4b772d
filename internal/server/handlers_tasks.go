package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"lifeboard/internal/apperr"
	"lifeboard/internal/priority"
	"lifeboard/internal/service"
)

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		respondError(c, apperr.Newf(apperr.KindValidation, "invalid id %q", c.Param(name)))
		return 0, false
	}
	return id, true
}

func parseTaskFilter(c *gin.Context) (priority.Filter, error) {
	var f priority.Filter

	// Active list by default: completed tasks only show up when asked for,
	// either explicitly or via completed=any.
	if raw := c.DefaultQuery("completed", "false"); raw != "any" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return f, apperr.Newf(apperr.KindValidation, "invalid completed value %q", raw)
		}
		f.Completed = &v
	}
	if raw := c.Query("projects"); raw != "" {
		f.Projects = strings.Split(raw, ",")
	}
	if raw := c.Query("exclude_projects"); raw != "" {
		f.ExcludedProjects = strings.Split(raw, ",")
	}
	if raw := c.Query("due_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, apperr.Newf(apperr.KindValidation, "invalid due_before value %q", raw)
		}
		f.DueBefore = &t
	}
	f.SortBy = priority.SortField(c.Query("sort"))
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	return f, f.Validate()
}

func (s *Server) handleListTasks(c *gin.Context) {
	f, err := parseTaskFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	tasks, err := s.taskSvc.List(c.Request.Context(), currentUser(c), f, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := s.taskSvc.Get(c.Request.Context(), currentUser(c), id, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var input service.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid task payload", err))
		return
	}
	task, err := s.taskSvc.Create(c.Request.Context(), currentUser(c), input, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input service.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid task payload", err))
		return
	}
	task, err := s.taskSvc.Update(c.Request.Context(), currentUser(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.taskSvc.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCompleteTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Force bool `json:"force"`
	}
	// The body is optional; an empty request means no override.
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid payload", err))
		return
	}
	task, err := s.taskSvc.ToggleComplete(c.Request.Context(), currentUser(c), id, body.Force, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleTaskTrash(c *gin.Context) {
	tasks, err := s.taskSvc.ListTrash(c.Request.Context(), currentUser(c), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func (s *Server) handleRestoreTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.taskSvc.Restore(c.Request.Context(), currentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAddDependency(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body struct {
		PrerequisiteID int64 `json:"prerequisite_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, "invalid payload", err))
		return
	}
	if err := s.taskSvc.AddDependency(c.Request.Context(), currentUser(c), id, body.PrerequisiteID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (s *Server) handleRemoveDependency(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	other, ok := pathID(c, "other")
	if !ok {
		return
	}
	if err := s.taskSvc.RemoveDependency(c.Request.Context(), currentUser(c), id, other); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
