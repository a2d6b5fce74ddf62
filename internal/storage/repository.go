package storage

import "context"

// Ports over the persistence layer. The SQLite repository implements
// both; the memory repository substitutes in tests and dev.
type (
	// UserStore persists identities and their approval status.
	UserStore interface {
		CreateUser(ctx context.Context, u User) error
		UserByUsername(ctx context.Context, username string) (User, error)
		UserByUID(ctx context.Context, uid string) (User, error)
		ListUsers(ctx context.Context) ([]User, error)
		SetUserStatus(ctx context.Context, uid, status string) error
		DeleteUser(ctx context.Context, uid string) error
	}

	// RecordStore persists one JSON salary document per identity:
	// whole-record read, upsert and delete only.
	RecordStore interface {
		// LoadRecord returns ErrNotFound for an absent record.
		LoadRecord(ctx context.Context, uid string) ([]byte, error)
		SaveRecord(ctx context.Context, uid string, doc []byte) error
		DeleteRecord(ctx context.Context, uid string) error
	}

	// Repository is the full persistence surface.
	Repository interface {
		UserStore
		RecordStore
		Close() error
	}
)
