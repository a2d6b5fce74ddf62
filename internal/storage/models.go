package storage

import (
	"errors"
	"time"
)

// Account statuses. A user signs in only once approved by the admin.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already exists")
)

// User is one registered identity.
type User struct {
	UID          string
	Username     string
	PasswordHash string
	Status       string
	CreatedAt    time.Time
}

// Record is the persisted salary document for one identity, stored as
// a single JSON blob keyed by uid.
type Record struct {
	UID       string
	Doc       []byte
	UpdatedAt time.Time
}
