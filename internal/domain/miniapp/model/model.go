package model

import (
	"time"
)

// TelegramUser is the identity block embedded in a launch payload.
// Optional attributes are pointers so that an absent field can be told apart
// from a zero value when merging into a stored profile.
type TelegramUser struct {
	ID                    int64   `json:"id"`
	IsBot                 *bool   `json:"is_bot,omitempty"`
	FirstName             string  `json:"first_name"`
	LastName              string  `json:"last_name,omitempty"`
	Username              string  `json:"username,omitempty"`
	LanguageCode          *string `json:"language_code,omitempty"`
	IsPremium             *bool   `json:"is_premium,omitempty"`
	AddedToAttachmentMenu *bool   `json:"added_to_attachment_menu,omitempty"`
	AllowsWriteToPM       *bool   `json:"allows_write_to_pm,omitempty"`
	PhotoURL              *string `json:"photo_url,omitempty"`
}

// TelegramChat is the chat context block of a launch payload.
type TelegramChat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// User is the durable profile row, keyed by the platform-assigned Telegram id.
type User struct {
	ID                    int64     `json:"id" gorm:"primaryKey"`
	TelegramID            int64     `json:"telegram_id" gorm:"uniqueIndex"`
	IsBot                 bool      `json:"is_bot"`
	FirstName             string    `json:"first_name"`
	LastName              string    `json:"last_name"`
	Username              string    `json:"username"`
	LanguageCode          string    `json:"language_code"`
	IsPremium             bool      `json:"is_premium"`
	AddedToAttachmentMenu bool      `json:"added_to_attachment_menu"`
	AllowsWriteToPM       bool      `json:"allows_write_to_pm" gorm:"column:allows_write_to_pm"`
	PhotoURL              string    `json:"photo_url"`
	LastAuthTimestamp     int64     `json:"last_auth_timestamp"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Session is one issued bearer token, stored only as its SHA-256 hash.
// Rows are immutable after creation; expiry is enforced at query time.
type Session struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"index"`
	TokenHash string    `gorm:"uniqueIndex"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

// Calendar is a set of dates shared by a user under a random public ref.
type Calendar struct {
	ID           int64  `gorm:"primaryKey"`
	UserID       int64  `gorm:"index"`
	CalendarRef  string `gorm:"uniqueIndex"`
	CalendarJSON string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Setting is a named configuration value (bot name, webhook security code).
type Setting struct {
	Name      string `gorm:"primaryKey"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a raw bot webhook update kept for auditing and local polling.
type Message struct {
	ID        int64 `gorm:"primaryKey"`
	UpdateID  int64 `gorm:"index"`
	Payload   string
	CreatedAt time.Time
}
