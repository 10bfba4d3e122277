package domain

import "time"

// MaxUsernameLength matches the users.username column width.
const MaxUsernameLength = 50

// User is a resolved identity. ID is opaque to everything above the store.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}
