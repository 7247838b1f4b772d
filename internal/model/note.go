package model

import (
	"time"

	"gorm.io/gorm"
)

// Note holds free-form text, optionally password-encrypted by the client.
type Note struct {
	ID           int64          `gorm:"primaryKey" json:"id"`
	UserID       int64          `gorm:"index" json:"user_id"`
	Title        string         `json:"title"`
	Content      string         `json:"content"` // plaintext, or ciphertext when Salt and IV are set
	ProjectTitle string         `json:"project_title"`
	Salt         string         `json:"salt,omitempty"`
	IV           string         `json:"iv,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Encrypted reports whether Content must be treated as ciphertext.
// Both fields are required; a note carrying only one of them is malformed
// and is never handed to the decrypter.
func (n Note) Encrypted() bool { return n.Salt != "" && n.IV != "" }
