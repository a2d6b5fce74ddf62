package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"paga/internal/amqp"
	"paga/internal/auth"
	"paga/internal/log"
	"paga/internal/storage"
)

const minPasswordLength = 6

// AuthService implements the identity lifecycle: the two-step
// registration behind the email-code gate, sign-in with the approval
// check, token issuance and account deletion.
type AuthService struct {
	users         storage.UserStore
	pending       *auth.PendingTable
	amqpClient    *amqp.Client
	adminUsername string
	jwtSecret     []byte
	tokenTTL      time.Duration
	logger        *log.Logger
}

func NewAuthService(users storage.UserStore, pending *auth.PendingTable, amqpClient *amqp.Client, adminUsername string, jwtSecret []byte, tokenTTL time.Duration, logger *log.Logger) *AuthService {
	return &AuthService{
		users:         users,
		pending:       pending,
		amqpClient:    amqpClient,
		adminUsername: adminUsername,
		jwtSecret:     jwtSecret,
		tokenTTL:      tokenTTL,
		logger:        logger.WithComponent("auth"),
	}
}

// StartRegistration stages credentials and queues the verification
// code for delivery to the operator. The account is not created until
// the code comes back through CompleteRegistration.
func (s *AuthService) StartRegistration(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrUsernameRequired
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}

	if _, err := s.users.UserByUsername(ctx, username); err == nil {
		return storage.ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check username: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	code, err := s.pending.Put(username, hash)
	if err != nil {
		return fmt.Errorf("stage registration: %w", err)
	}

	if s.amqpClient == nil {
		// Dev backends run without a broker; the code still has to
		// reach the operator somehow.
		s.logger.WarnContext(ctx, "AMQP client not available, logging verification code",
			"username", username, "code", code)
		return nil
	}
	if err := s.amqpClient.PublishVerificationMail(ctx, username, code); err != nil {
		return fmt.Errorf("queue verification mail: %w", err)
	}
	return nil
}

// CompleteRegistration checks the code and creates the account. New
// accounts start pending; the configured admin username is approved
// immediately.
func (s *AuthService) CompleteRegistration(ctx context.Context, username, code string) (storage.User, error) {
	p, err := s.pending.Take(strings.TrimSpace(username), strings.TrimSpace(code))
	if err != nil {
		return storage.User{}, err
	}

	status := storage.StatusPending
	if p.Username == s.adminUsername {
		status = storage.StatusApproved
	}

	u := storage.User{
		UID:          uuid.NewString(),
		Username:     p.Username,
		PasswordHash: p.PasswordHash,
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return storage.User{}, err
	}

	s.logger.InfoContext(ctx, "User registered", "uid", u.UID, "username", u.Username, "status", u.Status)
	return u, nil
}

// Login verifies credentials and the approval status, returning a
// signed session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, storage.User, error) {
	u, err := s.users.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return "", storage.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", storage.User{}, fmt.Errorf("look up user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return "", storage.User{}, ErrInvalidCredentials
	}

	switch u.Status {
	case storage.StatusApproved:
	case storage.StatusRejected:
		return "", storage.User{}, ErrRejected
	default:
		return "", storage.User{}, ErrPendingApproval
	}

	token, err := auth.GenerateToken(u.UID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", storage.User{}, fmt.Errorf("sign token: %w", err)
	}

	s.logger.InfoContext(ctx, "User signed in", "uid", u.UID, "username", u.Username)
	return token, u, nil
}

// Authenticate resolves a session token to its approved user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (storage.User, error) {
	uid, err := auth.UIDFromToken(token, s.jwtSecret)
	if err != nil {
		return storage.User{}, auth.ErrInvalidToken
	}
	u, err := s.users.UserByUID(ctx, uid)
	if err != nil {
		return storage.User{}, auth.ErrInvalidToken
	}
	if u.Status != storage.StatusApproved {
		// Approval can be revoked while a token is still live.
		return storage.User{}, auth.ErrInvalidToken
	}
	return u, nil
}

// DeleteAccount removes the user row. The caller is responsible for
// the salary record and session teardown.
func (s *AuthService) DeleteAccount(ctx context.Context, uid string) error {
	if err := s.users.DeleteUser(ctx, uid); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.InfoContext(ctx, "Account deleted", "uid", uid)
	return nil
}

// IsAdmin reports whether the user is the configured admin.
func (s *AuthService) IsAdmin(u storage.User) bool {
	return u.Username == s.adminUsername
}
