package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (uid, username, password_hash, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.UID, u.Username, u.PasswordHash, u.Status, u.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUsernameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UserByUsername(ctx context.Context, username string) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT uid, username, password_hash, status, created_at FROM users WHERE username = ?`, username))
}

func (r *SQLiteRepository) UserByUID(ctx context.Context, uid string) (User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT uid, username, password_hash, status, created_at FROM users WHERE uid = ?`, uid))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (User, error) {
	var u User
	var created string
	err := row.Scan(&u.UID, &u.Username, &u.PasswordHash, &u.Status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT uid, username, password_hash, status, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var created string
		if err := rows.Scan(&u.UID, &u.Username, &u.PasswordHash, &u.Status, &created); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		u.CreatedAt, _ = time.Parse(time.RFC3339, created)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLiteRepository) SetUserStatus(ctx context.Context, uid, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET status = ? WHERE uid = ?`, status, uid)
	if err != nil {
		return fmt.Errorf("set user status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE uid = ?`, uid)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) LoadRecord(ctx context.Context, uid string) ([]byte, error) {
	var doc []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT doc FROM salary_records WHERE uid = ?`, uid).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	return doc, nil
}

func (r *SQLiteRepository) SaveRecord(ctx context.Context, uid string, doc []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO salary_records (uid, doc, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		uid, doc, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteRecord(ctx context.Context, uid string) error {
	// Deleting an absent record is not an error: account deletion must
	// succeed for users who never saved anything.
	if _, err := r.db.ExecContext(ctx, `DELETE FROM salary_records WHERE uid = ?`, uid); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}
