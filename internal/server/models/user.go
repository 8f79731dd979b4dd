// Package models contains the server-side domain types shared by
// repositories and services.
package models

import "time"

// User is a registered account. PasswordHash is the bcrypt digest of the
// password and must never be serialized outward. JWTVersion is the session
// epoch: it is bumped on every password change and every token carries the
// value current at issuance, which is how outstanding tokens are revoked
// without a blocklist.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	JWTVersion   int64
	Avatar       AssetRef
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the minimal identity attached to an authenticated request.
type Principal struct {
	ID    int64
	Email string
}
