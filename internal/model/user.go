package model

import (
	"strings"
	"time"
)

type User struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Email            string    `gorm:"size:255;not null;uniqueIndex:idx_users_email" json:"email"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	PasswordHash     string    `gorm:"size:255;not null" json:"-"`
	IsActive         bool      `gorm:"not null;default:true" json:"is_active"`
	IsStaff          bool      `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser      bool      `gorm:"not null;default:false" json:"is_superuser"`
	CodeforcesHandle *string   `gorm:"size:255;uniqueIndex:idx_users_codeforces_handle" json:"codeforces_handle,omitempty"`
	OmegaUpHandle    *string   `gorm:"column:omegaup_handle;size:255;uniqueIndex:idx_users_omegaup_handle" json:"omegaup_handle,omitempty"`
	KattisHandle     *string   `gorm:"size:255;uniqueIndex:idx_users_kattis_handle" json:"kattis_handle,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// NormalizeEmail lowercases the domain part and leaves the local part untouched,
// since mailbox names may be case sensitive.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// Handle turns a blank handle into nil so that unset handles never collide
// on the unique indexes.
func Handle(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return &raw
}
