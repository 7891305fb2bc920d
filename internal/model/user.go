// Package model defines the data structures used throughout the application.
package model

import "time"

// DefaultAvatar is used for accounts that never uploaded a profile picture.
// Google sign-ins override it with the Google profile photo.
const DefaultAvatar = "https://cdn-icons-png.flaticon.com/512/149/149071.png"

// User represents a registered account.
//
// PasswordHash is the bcrypt hash of the user's password. It is tagged
// `json:"-"` so it can never leak through an API response — handlers
// serialize the whole struct, and the contract is that the password is
// never echoed back, even after an update that changed it.
//
// Google sign-ins create accounts without a password the user chose: the
// server generates a random one and hashes it, matching the usual
// upsert-by-email OAuth flow. Such users sign in via Google only.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	Avatar       string    `json:"avatar"    db:"avatar"` // URL or relative upload path
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
