package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"lifeboard/internal/apperr"
	"lifeboard/internal/cache"
	"lifeboard/internal/model"
	"lifeboard/internal/reconcile"
	"lifeboard/internal/repository"
)

// HabitInput represents data required to create or update a habit.
type HabitInput struct {
	Title       string `json:"title"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Frequency   string `json:"frequency"`
	TargetCount int    `json:"target_count"`
}

// HabitStatus is a habit with its progress for the current period.
type HabitStatus struct {
	model.Habit
	TodayCount  int  `json:"today_count"`
	Progress    int  `json:"progress"` // percent, clamped to [0,100]
	IsCompleted bool `json:"is_completed"`
}

// HabitService wraps habit business logic.
type HabitService struct {
	habitRepo *repository.HabitRepository
	rec       *reconcile.Reconciler[model.Habit]
}

func NewHabitService(habitRepo *repository.HabitRepository, commitTimeout time.Duration) *HabitService {
	s := &HabitService{habitRepo: habitRepo}
	s.rec = reconcile.New(cache.NewKeyed[model.Habit](), s.fetch, commitTimeout)
	return s
}

func habitCacheKey(userID int64) string { return fmt.Sprintf("habits:%d", userID) }

func (s *HabitService) fetch(ctx context.Context, key string) ([]model.Habit, error) {
	raw, ok := strings.CutPrefix(key, "habits:")
	if !ok {
		return nil, fmt.Errorf("malformed habit cache key %q", key)
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed habit cache key %q: %w", key, err)
	}
	return s.habitRepo.ListByUser(ctx, userID, false)
}

func (s *HabitService) matchUser(userID int64) func(string) bool {
	key := habitCacheKey(userID)
	return func(k string) bool { return k == key }
}

func validateHabitInput(input HabitInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return apperr.New(apperr.KindValidation, "title must not be empty")
	}
	switch input.Frequency {
	case model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly, model.FrequencyYearly:
	default:
		return apperr.Newf(apperr.KindValidation, "unknown frequency %q", input.Frequency)
	}
	if input.TargetCount < 1 {
		return apperr.New(apperr.KindValidation, "target count must be at least 1")
	}
	return nil
}

// Progress converts a completion count into a percentage of the target,
// rounded and clamped to [0,100].
func Progress(count, target int) int {
	if target < 1 {
		return 0
	}
	pct := int(math.Round(float64(count) * 100 / float64(target)))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// Create validates and persists a new habit.
func (s *HabitService) Create(ctx context.Context, user *model.User, input HabitInput) (*model.Habit, error) {
	if err := validateHabitInput(input); err != nil {
		return nil, err
	}
	habit := model.Habit{
		UserID:      user.ID,
		Title:       strings.TrimSpace(input.Title),
		Color:       input.Color,
		Icon:        input.Icon,
		Frequency:   input.Frequency,
		TargetCount: input.TargetCount,
		IsActive:    true,
	}
	err := s.rec.Do(ctx, reconcile.Mutation[model.Habit]{
		Match:     s.matchUser(user.ID),
		Transform: func(items []model.Habit) []model.Habit { return append(items, habit) },
		Commit:    func(ctx context.Context) error { return s.habitRepo.Create(ctx, &habit) },
	})
	if err != nil {
		return nil, err
	}
	return &habit, nil
}

// Update validates and persists edits to an existing habit.
func (s *HabitService) Update(ctx context.Context, user *model.User, habitID int64, input HabitInput) (*model.Habit, error) {
	if err := validateHabitInput(input); err != nil {
		return nil, err
	}
	habit, err := s.habitRepo.FindByID(ctx, user.ID, habitID)
	if err != nil {
		return nil, err
	}
	habit.Title = strings.TrimSpace(input.Title)
	habit.Color = input.Color
	habit.Icon = input.Icon
	habit.Frequency = input.Frequency
	habit.TargetCount = input.TargetCount

	err = s.rec.Do(ctx, reconcile.Mutation[model.Habit]{
		Match: s.matchUser(user.ID),
		Transform: func(items []model.Habit) []model.Habit {
			for i := range items {
				if items[i].ID == habitID {
					items[i] = *habit
				}
			}
			return items
		},
		Commit: func(ctx context.Context) error { return s.habitRepo.Update(ctx, habit) },
	})
	if err != nil {
		return nil, err
	}
	return habit, nil
}

// Deactivate retires a habit without deleting its history.
func (s *HabitService) Deactivate(ctx context.Context, user *model.User, habitID int64) error {
	habit, err := s.habitRepo.FindByID(ctx, user.ID, habitID)
	if err != nil {
		return err
	}
	habit.IsActive = false

	return s.rec.Do(ctx, reconcile.Mutation[model.Habit]{
		Match: s.matchUser(user.ID),
		Transform: func(items []model.Habit) []model.Habit {
			for i := range items {
				if items[i].ID == habitID {
					items[i].IsActive = false
				}
			}
			return items
		},
		Commit: func(ctx context.Context) error { return s.habitRepo.Update(ctx, habit) },
	})
}

// List returns habits with their progress for today.
func (s *HabitService) List(ctx context.Context, user *model.User, activeOnly bool, now time.Time) ([]HabitStatus, error) {
	habits, err := s.rec.Lookup(ctx, habitCacheKey(user.ID))
	if err != nil {
		return nil, err
	}
	day := dayStart(now)
	out := make([]HabitStatus, 0, len(habits))
	for _, h := range habits {
		if activeOnly && !h.IsActive {
			continue
		}
		count, err := s.habitRepo.DayCount(ctx, h.ID, day)
		if err != nil {
			return nil, err
		}
		out = append(out, HabitStatus{
			Habit:       h,
			TodayCount:  count,
			Progress:    Progress(count, h.TargetCount),
			IsCompleted: count >= h.TargetCount,
		})
	}
	return out, nil
}

// LogEntry appends a completion record for the given day.
func (s *HabitService) LogEntry(ctx context.Context, user *model.User, habitID int64, day time.Time, count int, notes string) (*model.HabitEntry, error) {
	if count < 1 {
		return nil, apperr.New(apperr.KindValidation, "count must be at least 1")
	}
	if _, err := s.habitRepo.FindByID(ctx, user.ID, habitID); err != nil {
		return nil, err
	}
	entry := model.HabitEntry{
		HabitID: habitID,
		Date:    dayStart(day),
		Count:   count,
		Notes:   notes,
	}
	if err := s.habitRepo.AddEntry(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Regularity reports the share of periods in the lookback window where the
// habit met its target, as a percentage clamped to [0,100].
func (s *HabitService) Regularity(ctx context.Context, user *model.User, habitID int64, lookbackDays int, now time.Time) (int, error) {
	habit, err := s.habitRepo.FindByID(ctx, user.ID, habitID)
	if err != nil {
		return 0, err
	}
	if lookbackDays < 1 {
		return 0, apperr.New(apperr.KindValidation, "lookback must be at least 1 day")
	}

	from := dayStart(now).AddDate(0, 0, -lookbackDays+1)
	entries, err := s.habitRepo.EntriesInRange(ctx, habitID, from, dayStart(now).AddDate(0, 0, 1))
	if err != nil {
		return 0, err
	}

	totals := make(map[time.Time]int)
	for _, e := range entries {
		start := periodStart(habit.Frequency, e.Date)
		totals[start] += e.Count
	}

	periods, met := 0, 0
	for cursor := periodStart(habit.Frequency, from); !cursor.After(now); cursor = nextPeriod(habit.Frequency, cursor) {
		periods++
		if totals[cursor] >= habit.TargetCount {
			met++
		}
	}
	if periods == 0 {
		return 0, nil
	}
	return Progress(met, periods), nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// periodStart truncates t to the start of its habit period.
func periodStart(frequency string, t time.Time) time.Time {
	t = dayStart(t)
	switch frequency {
	case model.FrequencyWeekly:
		// Weeks start on Monday.
		offset := (int(t.Weekday()) + 6) % 7
		return t.AddDate(0, 0, -offset)
	case model.FrequencyMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case model.FrequencyYearly:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

func nextPeriod(frequency string, start time.Time) time.Time {
	switch frequency {
	case model.FrequencyWeekly:
		return start.AddDate(0, 0, 7)
	case model.FrequencyMonthly:
		return start.AddDate(0, 1, 0)
	case model.FrequencyYearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// InvalidateCaches drops every cached habit list.
func (s *HabitService) InvalidateCaches() {
	s.rec.InvalidateAll()
}
