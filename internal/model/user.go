// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents an account, created on the first authenticated request of
// a Google identity.
//
// GoogleID is the "sub" claim of the Google ID token. It is stable for the
// lifetime of the Google account, unlike email, which is why the users table
// has a UNIQUE constraint on google_id and not on email. We still generate
// our own internal string ID (xid) so foreign keys never depend on a
// third-party's numbering scheme.
//
// Only Name is refreshed on subsequent logins; Email is captured once.
type User struct {
	ID        string    `json:"id"`
	GoogleID  string    `json:"googleId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
