// Package models holds the persistent data structures of the server.
package models

import "time"

// User is the identity record persisted in the users table.
//
// PasswordHash is excluded from default read projections; repositories return
// it only from lookups that request credentials explicitly. RefreshTokenDigest
// holds the keyed digest of the single currently valid refresh token, empty
// when none is live. ResetTokenDigest and ResetTokenExpires are set together
// while a password reset is pending and cleared together when it completes.
type User struct {
	ID                 string
	Email              string
	PasswordHash       string
	RefreshTokenDigest string
	ResetTokenDigest   string
	ResetTokenExpires  time.Time
	CreatedAt          time.Time
}
