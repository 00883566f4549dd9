package auth

import (
	"errors"
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	m := NewManager("test-secret-test-secret", time.Hour)

	hash, err := m.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter2hunter2" {
		t.Fatal("hash must not equal the password")
	}
	if !m.CheckPassword(hash, "hunter2hunter2") {
		t.Error("correct password should verify")
	}
	if m.CheckPassword(hash, "wrong") {
		t.Error("wrong password should not verify")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret-test-secret", time.Hour)

	token, err := m.IssueToken("user-123")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	userID, err := m.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("userID = %q, want user-123", userID)
	}
}

func TestVerifyTokenRejectsBadInput(t *testing.T) {
	m := NewManager("test-secret-test-secret", time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		if _, err := m.VerifyToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewManager("another-secret-entirely", time.Hour)
		token, err := other.IssueToken("user-123")
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		if _, err := m.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewManager("test-secret-test-secret", -time.Hour)
		token, err := expired.IssueToken("user-123")
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}
		if _, err := m.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})
}
