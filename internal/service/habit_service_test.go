package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeboard/internal/apperr"
	"lifeboard/internal/model"
	"lifeboard/internal/repository"
)

func newHabitService(t *testing.T) (*HabitService, *model.User) {
	t.Helper()
	db := newTestDB(t)
	return NewHabitService(repository.NewHabitRepository(db), 0), newTestUser(t, db)
}

func TestProgress(t *testing.T) {
	cases := []struct {
		count, target, want int
	}{
		{0, 3, 0},
		{2, 3, 67},
		{3, 3, 100},
		{5, 3, 100}, // capped, not 167
		{1, 2, 50},
		{1, 0, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Progress(c.count, c.target), "progress(%d, %d)", c.count, c.target)
	}
}

func TestHabitValidation(t *testing.T) {
	svc, user := newHabitService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, user, HabitInput{Title: "", Frequency: model.FrequencyDaily, TargetCount: 1})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Create(ctx, user, HabitInput{Title: "run", Frequency: "fortnightly", TargetCount: 1})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Create(ctx, user, HabitInput{Title: "run", Frequency: model.FrequencyDaily, TargetCount: 0})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestHabitCompletionThreshold(t *testing.T) {
	svc, user := newHabitService(t)
	ctx := context.Background()
	now := time.Now()

	habit, err := svc.Create(ctx, user, HabitInput{
		Title:       "push-ups",
		Frequency:   model.FrequencyDaily,
		TargetCount: 3,
	})
	require.NoError(t, err)

	_, err = svc.LogEntry(ctx, user, habit.ID, now, 2, "")
	require.NoError(t, err)

	list, err := svc.List(ctx, user, true, now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsCompleted)
	assert.Equal(t, 2, list[0].TodayCount)
	assert.Equal(t, 67, list[0].Progress)

	// Entries append; day totals are the sum.
	_, err = svc.LogEntry(ctx, user, habit.ID, now, 1, "after lunch")
	require.NoError(t, err)

	list, err = svc.List(ctx, user, true, now)
	require.NoError(t, err)
	assert.True(t, list[0].IsCompleted)
	assert.Equal(t, 100, list[0].Progress)

	_, err = svc.LogEntry(ctx, user, habit.ID, now, 2, "")
	require.NoError(t, err)
	list, err = svc.List(ctx, user, true, now)
	require.NoError(t, err)
	assert.Equal(t, 100, list[0].Progress, "progress stays capped at 100")
}

func TestHabitDeactivate(t *testing.T) {
	svc, user := newHabitService(t)
	ctx := context.Background()
	now := time.Now()

	habit, err := svc.Create(ctx, user, HabitInput{Title: "read", Frequency: model.FrequencyDaily, TargetCount: 1})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, user, habit.ID))

	active, err := svc.List(ctx, user, true, now)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.List(ctx, user, false, now)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive, "history survives deactivation")
}

func TestHabitRegularity(t *testing.T) {
	svc, user := newHabitService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	habit, err := svc.Create(ctx, user, HabitInput{Title: "meditate", Frequency: model.FrequencyDaily, TargetCount: 1})
	require.NoError(t, err)

	// Met on 2 of the last 4 days.
	_, err = svc.LogEntry(ctx, user, habit.ID, now, 1, "")
	require.NoError(t, err)
	_, err = svc.LogEntry(ctx, user, habit.ID, now.AddDate(0, 0, -2), 1, "")
	require.NoError(t, err)

	pct, err := svc.Regularity(ctx, user, habit.ID, 4, now)
	require.NoError(t, err)
	assert.Equal(t, 50, pct)

	_, err = svc.Regularity(ctx, user, habit.ID, 0, now)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestLogEntryValidation(t *testing.T) {
	svc, user := newHabitService(t)
	ctx := context.Background()

	habit, err := svc.Create(ctx, user, HabitInput{Title: "water", Frequency: model.FrequencyDaily, TargetCount: 8})
	require.NoError(t, err)

	_, err = svc.LogEntry(ctx, user, habit.ID, time.Now(), 0, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.LogEntry(ctx, user, habit.ID+5, time.Now(), 1, "")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
