// Package model defines the data structures used throughout the application.
package model

import "time"

// User is an account created either by email/password registration or by the
// first LINE login for a previously unseen LINE user id.
//
// WHY SO MANY POINTERS?
// Every identity column is optional and unique when present. A *string maps
// cleanly onto a nullable SQL column: nil is stored as NULL, never as "".
// That matters for uniqueness: two LINE-only accounts both have a NULL email,
// and NULL never collides with NULL under a UNIQUE constraint.
//
// PasswordHash is nil for OAuth-only accounts. Secrets and provider ids are
// tagged json:"-" so a User can never leak them even if encoded directly.
type User struct {
	ID              int64     `json:"userId"     db:"id"`
	LineID          *string   `json:"-"          db:"line_id"`
	KakaoID         *string   `json:"-"          db:"kakao_id"`
	PasswordHash    *string   `json:"-"          db:"password"`
	Nickname        *string   `json:"nickname"   db:"nickname"`
	ProfileImageURL *string   `json:"-"          db:"profile_image_url"`
	Email           *string   `json:"email"      db:"email"`
	CreatedAt       time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt"  db:"updated_at"`
}

// HasPassword reports whether the account can sign in with email/password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// StringPtr returns nil for "", otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
