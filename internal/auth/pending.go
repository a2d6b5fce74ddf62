package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

var (
	ErrNoPending    = errors.New("no pending registration")
	ErrCodeMismatch = errors.New("verification code mismatch")
	ErrCodeExpired  = errors.New("verification code expired")
)

// PendingRegistration holds the credentials captured at the start of a
// registration, waiting for the emailed code to come back.
type PendingRegistration struct {
	Username     string
	PasswordHash string
	Code         string
	Expires      time.Time
}

// PendingTable is the expiring in-memory table of registrations that
// have not yet cleared the email-code gate. Keyed by username; a
// repeated start replaces the earlier attempt.
type PendingTable struct {
	mu  sync.Mutex
	ttl time.Duration
	reg map[string]PendingRegistration
	now func() time.Time
}

func NewPendingTable(ttl time.Duration) *PendingTable {
	return &PendingTable{
		ttl: ttl,
		reg: make(map[string]PendingRegistration),
		now: time.Now,
	}
}

// Put stages a registration and returns the generated 6-digit code.
func (t *PendingTable) Put(username, passwordHash string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reg[username] = PendingRegistration{
		Username:     username,
		PasswordHash: passwordHash,
		Code:         code,
		Expires:      t.now().Add(t.ttl),
	}
	return code, nil
}

// Take validates the code for username and, on success, removes and
// returns the staged registration. A wrong code leaves it staged so
// the user can retry until expiry.
func (t *PendingTable) Take(username, code string) (PendingRegistration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.reg[username]
	if !ok {
		return PendingRegistration{}, ErrNoPending
	}
	if t.now().After(p.Expires) {
		delete(t.reg, username)
		return PendingRegistration{}, ErrCodeExpired
	}
	if p.Code != code {
		return PendingRegistration{}, ErrCodeMismatch
	}
	delete(t.reg, username)
	return p, nil
}

// Sweep drops expired registrations and returns how many were removed.
func (t *PendingTable) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	removed := 0
	for username, p := range t.reg {
		if now.After(p.Expires) {
			delete(t.reg, username)
			removed++
		}
	}
	return removed
}

// GenerateCode returns a random 6-digit verification code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
