package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/mmynk/taskboard/internal/models"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.Generate(&models.User{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.Email != "a@x.com" {
		t.Errorf("email: got %s, want a@x.com", claims.Email)
	}
}

func TestJWTRejects(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	token, _ := m.Generate(&models.User{Email: "a@x.com"})

	expired, _ := NewJWTManager("test-secret", -time.Minute).Generate(&models.User{Email: "a@x.com"})
	otherKey, _ := NewJWTManager("other-secret", time.Hour).Generate(&models.User{Email: "a@x.com"})

	tests := map[string]string{
		"garbage":      "not-a-token",
		"expired":      expired,
		"wrong secret": otherKey,
		"truncated":    token[:len(token)-4],
	}

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Validate(tok); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
