package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lifeboard/internal/apperr"
	"lifeboard/internal/cache"
	"lifeboard/internal/model"
	"lifeboard/internal/priority"
	"lifeboard/internal/reconcile"
	"lifeboard/internal/repository"
)

// TaskInput represents data required to create or update a task.
type TaskInput struct {
	Title        string     `json:"title"`
	Importance   int        `json:"importance"`
	Duration     int        `json:"duration"`
	Due          *time.Time `json:"due"`
	ProjectTitle string     `json:"project_title"`
}

// TaskView is a task with its derived fields resolved for display.
type TaskView struct {
	model.Task
	Urgency int `json:"urgency"`
	Score   int `json:"score"`
}

// TaskDetail is a task together with its dependency relations, resolved
// explicitly at the API boundary.
type TaskDetail struct {
	TaskView
	Prerequisites []TaskView `json:"prerequisites"`
	Dependents    []TaskView `json:"dependents"`
}

// ConfirmationRequiredError signals that completing a task needs an explicit
// override because prerequisites are still open. Nothing has been written.
type ConfirmationRequiredError struct {
	Blocking []TaskView
}

func (e *ConfirmationRequiredError) Error() string {
	titles := make([]string, len(e.Blocking))
	for i, t := range e.Blocking {
		titles[i] = t.Title
	}
	return fmt.Sprintf("completion requires confirmation, %d open prerequisite(s): %s",
		len(e.Blocking), strings.Join(titles, ", "))
}

// TaskService wraps task business logic: validation, scoring, the
// prerequisite contract and the optimistic cache protocol.
type TaskService struct {
	taskRepo *repository.TaskRepository
	rec      *reconcile.Reconciler[model.Task]
}

func NewTaskService(taskRepo *repository.TaskRepository, commitTimeout time.Duration) *TaskService {
	s := &TaskService{taskRepo: taskRepo}
	s.rec = reconcile.New(cache.NewKeyed[model.Task](), s.fetch, commitTimeout)
	return s
}

func taskCacheKey(userID int64) string { return fmt.Sprintf("tasks:%d", userID) }

func (s *TaskService) fetch(ctx context.Context, key string) ([]model.Task, error) {
	raw, ok := strings.CutPrefix(key, "tasks:")
	if !ok {
		return nil, fmt.Errorf("malformed task cache key %q", key)
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed task cache key %q: %w", key, err)
	}
	return s.taskRepo.ListByUser(ctx, userID)
}

func (s *TaskService) matchUser(userID int64) func(string) bool {
	key := taskCacheKey(userID)
	return func(k string) bool { return k == key }
}

func validateTaskInput(input TaskInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return apperr.New(apperr.KindValidation, "title must not be empty")
	}
	if input.Importance < 0 || input.Importance > priority.MaxUrgency {
		return apperr.Newf(apperr.KindValidation, "importance %d out of range", input.Importance)
	}
	if input.Duration < 0 || input.Duration > priority.MaxUrgency {
		return apperr.Newf(apperr.KindValidation, "duration %d out of range", input.Duration)
	}
	return nil
}

func (s *TaskService) view(t model.Task, now time.Time) TaskView {
	u := priority.Urgency(t.Due, now)
	return TaskView{Task: t, Urgency: u, Score: priority.Score(t.Importance, u, t.Duration)}
}

func (s *TaskService) views(tasks []model.Task, now time.Time) []TaskView {
	out := make([]TaskView, len(tasks))
	for i, t := range tasks {
		out[i] = s.view(t, now)
	}
	return out
}

// List returns the filtered, sorted and paginated task views. Scores are
// computed fresh on every call.
func (s *TaskService) List(ctx context.Context, user *model.User, f priority.Filter, now time.Time) ([]TaskView, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	tasks, err := s.rec.Lookup(ctx, taskCacheKey(user.ID))
	if err != nil {
		return nil, err
	}
	return s.views(priority.Apply(tasks, now, f), now), nil
}

// Get resolves a task with its prerequisite and dependent relations.
func (s *TaskService) Get(ctx context.Context, user *model.User, taskID int64, now time.Time) (*TaskDetail, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	edges, err := s.taskRepo.ListDependencies(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	detail := &TaskDetail{TaskView: s.view(*task, now)}
	for _, edge := range edges {
		switch taskID {
		case edge.TaskID:
			prereq, err := s.taskRepo.FindByID(ctx, user.ID, edge.PrerequisiteID)
			if err != nil {
				continue // edge to a trashed task
			}
			detail.Prerequisites = append(detail.Prerequisites, s.view(*prereq, now))
		case edge.PrerequisiteID:
			dep, err := s.taskRepo.FindByID(ctx, user.ID, edge.TaskID)
			if err != nil {
				continue
			}
			detail.Dependents = append(detail.Dependents, s.view(*dep, now))
		}
	}
	return detail, nil
}

// Create validates and persists a new task. The cached list shows the task
// immediately under the pending id sentinel until the commit confirms.
func (s *TaskService) Create(ctx context.Context, user *model.User, input TaskInput, now time.Time) (*model.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:       user.ID,
		Title:        strings.TrimSpace(input.Title),
		Importance:   input.Importance,
		Duration:     input.Duration,
		Due:          input.Due,
		ProjectTitle: input.ProjectTitle,
	}

	optimistic := task
	optimistic.ID = model.PendingID
	optimistic.CreatedAt = now

	err := s.rec.Do(ctx, reconcile.Mutation[model.Task]{
		Match:     s.matchUser(user.ID),
		Transform: func(items []model.Task) []model.Task { return append(items, optimistic) },
		Commit:    func(ctx context.Context) error { return s.taskRepo.Create(ctx, &task) },
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update validates and persists edits to an existing task.
func (s *TaskService) Update(ctx context.Context, user *model.User, taskID int64, input TaskInput) (*model.Task, error) {
	if err := validateTaskInput(input); err != nil {
		return nil, err
	}
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}

	task.Title = strings.TrimSpace(input.Title)
	task.Importance = input.Importance
	task.Duration = input.Duration
	task.Due = input.Due
	task.ProjectTitle = input.ProjectTitle

	err = s.rec.Do(ctx, reconcile.Mutation[model.Task]{
		Match: s.matchUser(user.ID),
		Transform: func(items []model.Task) []model.Task {
			for i := range items {
				if items[i].ID == taskID {
					items[i] = *task
				}
			}
			return items
		},
		Commit: func(ctx context.Context) error { return s.taskRepo.Update(ctx, task) },
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleComplete flips the completion state. Completing a task whose
// prerequisites are still open is neither silently blocked nor silently
// allowed: without force it returns a ConfirmationRequiredError listing the
// blocking tasks, and the caller re-invokes with force to override.
func (s *TaskService) ToggleComplete(ctx context.Context, user *model.User, taskID int64, force bool, now time.Time) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}

	var completedAt *time.Time
	if !task.Completed() {
		if !force {
			blocking, err := s.openPrerequisites(ctx, user, taskID, now)
			if err != nil {
				return nil, err
			}
			if len(blocking) > 0 {
				return nil, &ConfirmationRequiredError{Blocking: blocking}
			}
		}
		completedAt = &now
	}

	err = s.rec.Do(ctx, reconcile.Mutation[model.Task]{
		Match: s.matchUser(user.ID),
		Transform: func(items []model.Task) []model.Task {
			for i := range items {
				if items[i].ID == taskID {
					items[i].CompletedAt = completedAt
				}
			}
			return items
		},
		Commit: func(ctx context.Context) error { return s.taskRepo.SetCompleted(ctx, task, completedAt) },
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) openPrerequisites(ctx context.Context, user *model.User, taskID int64, now time.Time) ([]TaskView, error) {
	edges, err := s.taskRepo.ListDependencies(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	var blocking []TaskView
	for _, edge := range edges {
		if edge.TaskID != taskID {
			continue
		}
		prereq, err := s.taskRepo.FindByID(ctx, user.ID, edge.PrerequisiteID)
		if err != nil {
			continue // trashed prerequisites do not block
		}
		if !prereq.Completed() {
			blocking = append(blocking, s.view(*prereq, now))
		}
	}
	return blocking, nil
}

// AddDependency records that prerequisite must be completed before task.
// Self-edges, duplicates and cycle-creating edges are rejected.
func (s *TaskService) AddDependency(ctx context.Context, user *model.User, taskID, prerequisiteID int64) error {
	if taskID == prerequisiteID {
		return apperr.New(apperr.KindValidation, "a task cannot depend on itself")
	}
	if _, err := s.taskRepo.FindByID(ctx, user.ID, taskID); err != nil {
		return err
	}
	if _, err := s.taskRepo.FindByID(ctx, user.ID, prerequisiteID); err != nil {
		return err
	}

	edges, err := s.taskRepo.ListDependencies(ctx, user.ID)
	if err != nil {
		return err
	}
	prereqsOf := make(map[int64][]int64, len(edges))
	for _, edge := range edges {
		if edge.TaskID == taskID && edge.PrerequisiteID == prerequisiteID {
			return apperr.New(apperr.KindValidation, "dependency already exists")
		}
		prereqsOf[edge.TaskID] = append(prereqsOf[edge.TaskID], edge.PrerequisiteID)
	}
	if reachable(prereqsOf, prerequisiteID, taskID) {
		return apperr.New(apperr.KindValidation, "dependency would create a cycle")
	}

	return s.taskRepo.CreateDependency(ctx, &model.TaskDependency{
		TaskID:         taskID,
		PrerequisiteID: prerequisiteID,
	})
}

// reachable reports whether target is among the transitive prerequisites
// of start.
func reachable(prereqsOf map[int64][]int64, start, target int64) bool {
	seen := map[int64]bool{start: true}
	stack := []int64{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range prereqsOf[cur] {
			if next == target {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// RemoveDependency deletes the edge between two tasks regardless of its
// direction.
func (s *TaskService) RemoveDependency(ctx context.Context, user *model.User, idA, idB int64) error {
	if _, err := s.taskRepo.FindByID(ctx, user.ID, idA); err != nil {
		return err
	}
	if _, err := s.taskRepo.FindByID(ctx, user.ID, idB); err != nil {
		return err
	}
	return s.taskRepo.DeleteDependency(ctx, idA, idB)
}

// Delete moves the task to the trash, removing it from cached lists
// immediately.
func (s *TaskService) Delete(ctx context.Context, user *model.User, taskID int64) error {
	return s.rec.Do(ctx, reconcile.Mutation[model.Task]{
		Match: s.matchUser(user.ID),
		Transform: func(items []model.Task) []model.Task {
			out := items[:0]
			for _, t := range items {
				if t.ID != taskID {
					out = append(out, t)
				}
			}
			return out
		},
		Commit: func(ctx context.Context) error { return s.taskRepo.Delete(ctx, user.ID, taskID) },
	})
}

// ListTrash returns soft-deleted tasks.
func (s *TaskService) ListTrash(ctx context.Context, user *model.User, now time.Time) ([]TaskView, error) {
	tasks, err := s.taskRepo.ListTrash(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.views(tasks, now), nil
}

// Restore brings a trashed task back and refreshes the cached list.
func (s *TaskService) Restore(ctx context.Context, user *model.User, taskID int64) error {
	if err := s.taskRepo.Restore(ctx, user.ID, taskID); err != nil {
		return err
	}
	return s.rec.Revalidate(ctx, taskCacheKey(user.ID))
}

// InvalidateCaches drops every cached task list. Wired to the periodic
// sweep so stale optimistic state cannot outlive one sweep interval.
func (s *TaskService) InvalidateCaches() {
	s.rec.InvalidateAll()
}
