package model

import "time"

// User owns every other entity and authenticates with an API token.
type User struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"index" json:"name"`
	APIToken       string    `gorm:"uniqueIndex" json:"-"`
	TelegramChatID int64     `json:"-"` // 0 disables the daily digest
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
