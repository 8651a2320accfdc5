package models

import "time"

// Identity is the signed-in user as seen by the sync layer
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// User is the persisted account record behind an Identity
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
