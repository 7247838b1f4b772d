package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lifeboard/internal/apperr"
	"lifeboard/internal/model"
)

// HabitRepository handles CRUD for habits and their entries.
type HabitRepository struct {
	db *gorm.DB
}

func NewHabitRepository(db *gorm.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

func (r *HabitRepository) Create(ctx context.Context, habit *model.Habit) error {
	if err := r.db.WithContext(ctx).Create(habit).Error; err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

func (r *HabitRepository) ListByUser(ctx context.Context, userID int64, activeOnly bool) ([]model.Habit, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var habits []model.Habit
	if err := q.Order("title ASC").Find(&habits).Error; err != nil {
		return nil, err
	}
	return habits, nil
}

func (r *HabitRepository) FindByID(ctx context.Context, userID, habitID int64) (*model.Habit, error) {
	var habit model.Habit
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, habitID).First(&habit).Error
	switch {
	case err == nil:
		return &habit, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.Newf(apperr.KindNotFound, "habit %d not found", habitID)
	default:
		return nil, fmt.Errorf("find habit: %w", err)
	}
}

func (r *HabitRepository) Update(ctx context.Context, habit *model.Habit) error {
	if err := r.db.WithContext(ctx).Save(habit).Error; err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	return nil
}

// AddEntry appends a completion record. Entries for the same date are never
// overwritten; the day total is the sum over them.
func (r *HabitRepository) AddEntry(ctx context.Context, entry *model.HabitEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("add habit entry: %w", err)
	}
	return nil
}

// EntriesInRange returns entries for the habit with from <= date < to.
func (r *HabitRepository) EntriesInRange(ctx context.Context, habitID int64, from, to time.Time) ([]model.HabitEntry, error) {
	var entries []model.HabitEntry
	if err := r.db.WithContext(ctx).
		Where("habit_id = ? AND date >= ? AND date < ?", habitID, from, to).
		Order("date ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// DayCount sums completions logged on the given calendar date.
func (r *HabitRepository) DayCount(ctx context.Context, habitID int64, day time.Time) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.HabitEntry{}).
		Where("habit_id = ? AND date >= ? AND date < ?", habitID, day, day.AddDate(0, 0, 1)).
		Select("COALESCE(SUM(count), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum habit entries: %w", err)
	}
	return int(total), nil
}
