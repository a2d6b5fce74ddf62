package services

import (
	"context"
	"fmt"
	"time"

	"paga/internal/log"
	"paga/internal/storage"
)

// UserSummary is the admin-facing view of one account; the password
// hash never leaves the service layer.
type UserSummary struct {
	UID       string    `json:"uid"`
	Username  string    `json:"username"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// AdminService gates registrations: listing accounts and flipping
// their status between pending, approved and rejected.
type AdminService struct {
	users  storage.UserStore
	logger *log.Logger
}

func NewAdminService(users storage.UserStore, logger *log.Logger) *AdminService {
	return &AdminService{
		users:  users,
		logger: logger.WithComponent("admin"),
	}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]UserSummary, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{
			UID:       u.UID,
			Username:  u.Username,
			Status:    u.Status,
			CreatedAt: u.CreatedAt,
		})
	}
	return out, nil
}

func (s *AdminService) Approve(ctx context.Context, uid string) error {
	if err := s.users.SetUserStatus(ctx, uid, storage.StatusApproved); err != nil {
		return fmt.Errorf("approve user: %w", err)
	}
	s.logger.InfoContext(ctx, "User approved", "uid", uid)
	return nil
}

func (s *AdminService) Reject(ctx context.Context, uid string) error {
	if err := s.users.SetUserStatus(ctx, uid, storage.StatusRejected); err != nil {
		return fmt.Errorf("reject user: %w", err)
	}
	s.logger.InfoContext(ctx, "User rejected", "uid", uid)
	return nil
}
