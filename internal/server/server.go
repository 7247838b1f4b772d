// Package server exposes the lifeboard domain over a JSON API.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lifeboard/internal/apperr"
	"lifeboard/internal/priority"
	"lifeboard/internal/repository"
	"lifeboard/internal/service"
)

// Server wires the services to gin routes.
type Server struct {
	userRepo *repository.UserRepository
	taskSvc  *service.TaskService
	habitSvc *service.HabitService
	noteSvc  *service.NoteService
	movieSvc *service.MovieService
	router   *gin.Engine
}

// New creates the server and registers all routes.
func New(userRepo *repository.UserRepository, taskSvc *service.TaskService, habitSvc *service.HabitService, noteSvc *service.NoteService, movieSvc *service.MovieService) *Server {
	s := &Server{
		userRepo: userRepo,
		taskSvc:  taskSvc,
		habitSvc: habitSvc,
		noteSvc:  noteSvc,
		movieSvc: movieSvc,
		router:   gin.Default(),
	}
	s.registerRoutes(s.router)
	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api/v1", s.authRequired())
	{
		api.GET("/reference/importance", s.handleImportanceLabels)
		api.GET("/reference/duration", s.handleDurationLabels)

		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleCreateTask)
		api.GET("/tasks/trash", s.handleTaskTrash)
		api.GET("/tasks/:id", s.handleGetTask)
		api.PUT("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.POST("/tasks/:id/complete", s.handleCompleteTask)
		api.POST("/tasks/:id/restore", s.handleRestoreTask)
		api.POST("/tasks/:id/dependencies", s.handleAddDependency)
		api.DELETE("/tasks/:id/dependencies/:other", s.handleRemoveDependency)

		api.GET("/habits", s.handleListHabits)
		api.POST("/habits", s.handleCreateHabit)
		api.PUT("/habits/:id", s.handleUpdateHabit)
		api.DELETE("/habits/:id", s.handleDeactivateHabit)
		api.POST("/habits/:id/entries", s.handleLogHabitEntry)
		api.GET("/habits/:id/regularity", s.handleHabitRegularity)

		api.GET("/notes", s.handleListNotes)
		api.POST("/notes", s.handleCreateNote)
		api.GET("/notes/trash", s.handleNoteTrash)
		api.GET("/notes/:id", s.handleGetNote)
		api.PUT("/notes/:id", s.handleUpdateNote)
		api.DELETE("/notes/:id", s.handleDeleteNote)
		api.POST("/notes/:id/restore", s.handleRestoreNote)
		api.POST("/notes/:id/decrypt", s.handleDecryptNote)

		api.GET("/movies/search", s.handleSearchMovies)
		api.GET("/movies", s.handleListMovies)
		api.POST("/movies", s.handleAddMovie)
		api.PUT("/movies/:id", s.handleUpdateMovie)
		api.DELETE("/movies/:id", s.handleDeleteMovie)
	}
}

// Run starts the HTTP server.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the routing tree for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleImportanceLabels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": priority.ImportanceLabels})
}

func (s *Server) handleDurationLabels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": priority.DurationLabels})
}

// respondError maps the error taxonomy onto HTTP statuses. A completion
// that needs confirmation is not a plain failure: 409 plus the blocking
// tasks so the client can prompt for the override.
func respondError(c *gin.Context, err error) {
	var confirm *service.ConfirmationRequiredError
	if errors.As(err, &confirm) {
		c.JSON(http.StatusConflict, gin.H{
			"error":                 "confirmation required",
			"blocking":              confirm.Blocking,
			"confirmation_required": true,
		})
		return
	}

	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindDecryption:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindAuth:
		status = http.StatusUnauthorized
	case apperr.KindNetwork:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": apperr.KindOf(err).String()})
}
