package auth

import (
	"errors"
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("uid-42", secret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	uid, err := UIDFromToken(token, secret)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if uid != "uid-42" {
		t.Errorf("uid = %q, want uid-42", uid)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("uid-42", []byte("right"), time.Hour)
	if _, err := UIDFromToken(token, []byte("wrong")); err == nil {
		t.Error("token signed with another secret should be rejected")
	}
}

func TestTokenExpired(t *testing.T) {
	token, _ := GenerateToken("uid-42", []byte("secret"), -time.Minute)
	if _, err := UIDFromToken(token, []byte("secret")); err == nil {
		t.Error("expired token should be rejected")
	}
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("generate code: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q is not 6 digits", code)
		}
	}
}

func TestPendingTable(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	table := NewPendingTable(15 * time.Minute)
	table.now = func() time.Time { return now }

	code, err := table.Put("mira", "hash")
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	if _, err := table.Take("mira", "000000"); !errors.Is(err, ErrCodeMismatch) {
		t.Errorf("wrong code: %v", err)
	}
	// Wrong code leaves the registration staged.
	p, err := table.Take("mira", code)
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if p.Username != "mira" || p.PasswordHash != "hash" {
		t.Errorf("unexpected registration: %+v", p)
	}
	// Taken once, gone.
	if _, err := table.Take("mira", code); !errors.Is(err, ErrNoPending) {
		t.Errorf("second take: %v", err)
	}
}

func TestPendingTableExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	table := NewPendingTable(15 * time.Minute)
	table.now = func() time.Time { return now }

	code, _ := table.Put("mira", "hash")
	now = now.Add(16 * time.Minute)

	if _, err := table.Take("mira", code); !errors.Is(err, ErrCodeExpired) {
		t.Errorf("expired take: %v", err)
	}
	// Expired entry was dropped.
	if _, err := table.Take("mira", code); !errors.Is(err, ErrNoPending) {
		t.Errorf("after expiry: %v", err)
	}
}

func TestPendingTableSweep(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	table := NewPendingTable(15 * time.Minute)
	table.now = func() time.Time { return now }

	_, _ = table.Put("a", "h")
	_, _ = table.Put("b", "h")
	now = now.Add(20 * time.Minute)
	_, _ = table.Put("c", "h")

	if removed := table.Sweep(); removed != 2 {
		t.Errorf("sweep removed %d, want 2", removed)
	}
}
