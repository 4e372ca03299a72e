package auth

import (
	"lingo/internal/entity"
	"testing"
	"time"
)

func TestNewManagerAndTokenLifecycle(t *testing.T) {
	mgr, err := NewManager("test-secret", "issuer", time.Minute*30)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}

	user := &entity.DbUser{ID: 42, Username: "alice", Email: "alice@x.com"}
	token, expiresAt, err := mgr.GenerateToken(user)
	if err != nil {
		t.Fatalf("unexpected error generating token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if expiresAt.Before(time.Now()) {
		t.Fatal("expected future expiry time")
	}

	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error parsing token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user id %d, got %d", user.ID, claims.UserID)
	}
	if claims.Username != user.Username {
		t.Fatalf("expected username %s, got %s", user.Username, claims.Username)
	}
}

func TestParseTokenRejectsTamperedToken(t *testing.T) {
	mgr, err := NewManager("test-secret", "issuer", time.Minute*30)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}

	token, _, err := mgr.GenerateToken(&entity.DbUser{ID: 7, Username: "bob"})
	if err != nil {
		t.Fatalf("unexpected error generating token: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := mgr.ParseToken(tampered); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}

	other, err := NewManager("different-secret", "issuer", time.Minute*30)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestParseTokenRejectsExpiredToken(t *testing.T) {
	mgr, err := NewManager("test-secret", "issuer", time.Nanosecond)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}

	token, _, err := mgr.GenerateToken(&entity.DbUser{ID: 7, Username: "bob"})
	if err != nil {
		t.Fatalf("unexpected error generating token: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := mgr.ParseToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
