package model

import "time"

// Habit frequencies.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// Habit is a recurring practice with a completion target per period.
type Habit struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"index" json:"user_id"`
	Title       string    `json:"title"`
	Color       string    `json:"color"` // palette key
	Icon        string    `json:"icon"`  // named icon key
	Frequency   string    `json:"frequency"`
	TargetCount int       `json:"target_count"` // completions required per period
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HabitEntry records completions logged on a calendar date. Entries are
// appended per log action; the day total is the sum of counts for the date.
type HabitEntry struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	HabitID   int64     `gorm:"index" json:"habit_id"`
	Date      time.Time `gorm:"index" json:"date"` // truncated to day, UTC
	Count     int       `json:"count"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
