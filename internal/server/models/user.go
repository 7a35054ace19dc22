// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is one authenticated account. Custom claims are mirrored into the
// user's access token on login and refresh.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Claims       CustomClaims
	CreatedAt    time.Time
}
