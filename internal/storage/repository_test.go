package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// repoTest runs the shared repository contract against an implementation.
func repoTest(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	u := User{
		UID:          "uid-1",
		Username:     "mira",
		PasswordHash: "x",
		Status:       StatusPending,
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := repo.CreateUser(ctx, User{UID: "uid-2", Username: "mira", Status: StatusPending}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("duplicate username should fail, got %v", err)
	}

	got, err := repo.UserByUsername(ctx, "mira")
	if err != nil || got.UID != "uid-1" {
		t.Fatalf("user by username: %v %v", got, err)
	}
	if _, err := repo.UserByUID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing uid should be ErrNotFound, got %v", err)
	}

	if err := repo.SetUserStatus(ctx, "uid-1", StatusApproved); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, _ = repo.UserByUID(ctx, "uid-1")
	if got.Status != StatusApproved {
		t.Fatalf("status not updated: %v", got.Status)
	}
	if err := repo.SetUserStatus(ctx, "missing", StatusRejected); !errors.Is(err, ErrNotFound) {
		t.Fatalf("set status on missing user: %v", err)
	}

	// Records: absent read, upsert twice, delete is idempotent.
	if _, err := repo.LoadRecord(ctx, "uid-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("absent record should be ErrNotFound, got %v", err)
	}
	if err := repo.SaveRecord(ctx, "uid-1", []byte(`{"hourly":100}`)); err != nil {
		t.Fatalf("save record: %v", err)
	}
	if err := repo.SaveRecord(ctx, "uid-1", []byte(`{"hourly":200}`)); err != nil {
		t.Fatalf("upsert record: %v", err)
	}
	doc, err := repo.LoadRecord(ctx, "uid-1")
	if err != nil || string(doc) != `{"hourly":200}` {
		t.Fatalf("load record: %s %v", doc, err)
	}
	if err := repo.DeleteRecord(ctx, "uid-1"); err != nil {
		t.Fatalf("delete record: %v", err)
	}
	if err := repo.DeleteRecord(ctx, "uid-1"); err != nil {
		t.Fatalf("deleting an absent record should not error: %v", err)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Fatalf("list users: %v %v", users, err)
	}

	if err := repo.DeleteUser(ctx, "uid-1"); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if err := repo.DeleteUser(ctx, "uid-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete should be ErrNotFound, got %v", err)
	}
}

func TestMemoryRepository(t *testing.T) {
	repoTest(t, NewMemoryRepository())
}

func TestSQLiteRepository(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "paga.db"))
	if err != nil {
		t.Fatalf("open sqlite repository: %v", err)
	}
	defer repo.Close()
	repoTest(t, repo)
}

func TestMemoryRecordIsolation(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	doc := []byte(`{"hourly":100}`)
	if err := repo.SaveRecord(ctx, "u", doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	doc[2] = 'X'

	stored, err := repo.LoadRecord(ctx, "u")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(stored) != `{"hourly":100}` {
		t.Errorf("caller mutation leaked into stored doc: %s", stored)
	}
}
