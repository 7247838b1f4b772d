package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeboard/internal/model"
	"lifeboard/internal/repository"
	"lifeboard/internal/service"
)

var testDBCounter atomic.Int64

type testEnv struct {
	handler http.Handler
	token   string
	user    *model.User
	taskSvc *service.TaskService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := repository.NewDB(dsn)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	userRepo := repository.NewUserRepository(db)
	user, err := userRepo.Create(context.Background(), "tester", 0)
	require.NoError(t, err)

	taskSvc := service.NewTaskService(repository.NewTaskRepository(db), 0)
	habitSvc := service.NewHabitService(repository.NewHabitRepository(db), 0)
	noteSvc := service.NewNoteService(repository.NewNoteRepository(db), nil, 0)
	movieSvc := service.NewMovieService(repository.NewMovieRepository(db), nil, 0)

	srv := New(userRepo, taskSvc, habitSvc, noteSvc, movieSvc)
	return &testEnv{handler: srv.Handler(), token: user.APIToken, user: user, taskSvc: taskSvc}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "missing token")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "unknown token")
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/tasks", gin.H{"title": "write report", "importance": 3, "duration": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Greater(t, created.ID, int64(0))

	rec = env.do(t, http.MethodGet, "/api/v1/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listBody struct {
		Tasks []service.TaskView `json:"tasks"`
		Count int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listBody))
	require.Equal(t, 1, listBody.Count)
	assert.Equal(t, "write report", listBody.Tasks[0].Title)
	assert.Equal(t, -1, listBody.Tasks[0].Score) // no due date, urgency 0
	assert.Equal(t, 0, listBody.Tasks[0].Urgency)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/tasks/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/tasks/trash", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listBody))
	assert.Equal(t, 1, listBody.Count)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/restore", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCompleteTaskConfirmationConflict(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/tasks", gin.H{"title": "draft"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var prereq model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prereq))

	rec = env.do(t, http.MethodPost, "/api/v1/tasks", gin.H{"title": "publish"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var task model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/dependencies", task.ID), gin.H{"prerequisite_id": prereq.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	// No body at all still parses; the open prerequisite forces a 409.
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/complete", task.ID), nil)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	var conflict struct {
		ConfirmationRequired bool               `json:"confirmation_required"`
		Blocking             []service.TaskView `json:"blocking"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conflict))
	assert.True(t, conflict.ConfirmationRequired)
	require.Len(t, conflict.Blocking, 1)
	assert.Equal(t, prereq.ID, conflict.Blocking[0].ID)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/complete", task.ID), gin.H{"force": true})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestListDefaultsToOpenTasks(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/tasks", gin.H{"title": "done already"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var task model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/complete", task.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/tasks", gin.H{"title": "still open"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var listBody struct {
		Tasks []service.TaskView `json:"tasks"`
		Count int                `json:"count"`
	}

	// The completed task is hidden unless asked for.
	rec = env.do(t, http.MethodGet, "/api/v1/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listBody))
	require.Equal(t, 1, listBody.Count)
	assert.Equal(t, "still open", listBody.Tasks[0].Title)

	rec = env.do(t, http.MethodGet, "/api/v1/tasks?completed=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listBody))
	require.Equal(t, 1, listBody.Count)
	assert.Equal(t, "done already", listBody.Tasks[0].Title)

	rec = env.do(t, http.MethodGet, "/api/v1/tasks?completed=any", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listBody))
	assert.Equal(t, 2, listBody.Count)
}

func TestInvalidFilterRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/tasks?projects=work&exclude_projects=work", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/tasks?due_before=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/tasks/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNoteEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/notes", gin.H{"title": "secret", "content": "xx", "salt": "s"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "salt without iv")

	rec = env.do(t, http.MethodPost, "/api/v1/notes", gin.H{"title": "plain", "content": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var note model.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/notes/%d/decrypt", note.ID), gin.H{"password": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	var decrypted struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decrypted))
	assert.Equal(t, "hello", decrypted.Content)

	rec = env.do(t, http.MethodGet, "/api/v1/notes/99999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHabitEntryCountOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/habits", gin.H{"title": "run", "frequency": "daily", "target_count": 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var habit model.Habit
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &habit))

	// An omitted count logs one completion.
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/habits/%d/entries", habit.ID), gin.H{})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry model.HabitEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, 1, entry.Count)

	// An explicit zero is not the same as omitted; it must be rejected.
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/habits/%d/entries", habit.ID), gin.H{"count": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMovieEndpoints(t *testing.T) {
	env := newTestEnv(t)

	payload := gin.H{"tmdb_id": 603, "media_type": "movie", "title": "The Matrix"}
	rec := env.do(t, http.MethodPost, "/api/v1/movies", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/movies", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "duplicate catalog ref")
}

func TestReferenceLabels(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/reference/importance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Levels map[int]string `json:"levels"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Levels, 6)
}
