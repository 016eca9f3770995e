package models

import "time"

// Token is the persisted record of the single active access or refresh token
// of a user. Both token stores share this shape.
type Token struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
