package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Spok95/edu-platform/internal/auth"
	"github.com/Spok95/edu-platform/internal/models"
)

const secret = "test-secret"

func testUser() *models.User {
	return &models.User{ID: 42, Email: "ivanov@example.com", Role: models.Student}
}

func TestToken_Roundtrip(t *testing.T) {
	raw, err := auth.IssueToken(secret, testUser(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := auth.ParseToken(secret, raw)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 42 || claims.Email != "ivanov@example.com" || claims.Role != models.Student {
		t.Fatalf("claims не совпали: %+v", claims)
	}
}

func TestToken_Expired(t *testing.T) {
	raw, err := auth.IssueToken(secret, testUser(), -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	_, err = auth.ParseToken(secret, raw)
	if !errors.Is(err, auth.ErrExpired) {
		t.Fatalf("ожидали ErrExpired, получили %v", err)
	}
}

func TestToken_Missing(t *testing.T) {
	_, err := auth.ParseToken(secret, "")
	if !errors.Is(err, auth.ErrNoToken) {
		t.Fatalf("ожидали ErrNoToken, получили %v", err)
	}
}

func TestToken_Malformed(t *testing.T) {
	for _, raw := range []string{"мусор", "a.b.c", "eyJhbGciOiJub25lIn0.e30."} {
		if _, err := auth.ParseToken(secret, raw); !errors.Is(err, auth.ErrInvalid) {
			t.Fatalf("%q: ожидали ErrInvalid, получили %v", raw, err)
		}
	}
}

func TestToken_WrongSecret(t *testing.T) {
	raw, err := auth.IssueToken(secret, testUser(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	_, err = auth.ParseToken("другой-секрет", raw)
	if !errors.Is(err, auth.ErrInvalid) {
		t.Fatalf("ожидали ErrInvalid, получили %v", err)
	}
}

func TestHashPassword_Deterministic(t *testing.T) {
	h1 := auth.HashPassword("qwerty123", "salt")
	h2 := auth.HashPassword("qwerty123", "salt")
	if h1 != h2 {
		t.Fatal("хеш должен быть детерминированным")
	}
	if auth.HashPassword("qwerty123", "другая-соль") == h1 {
		t.Fatal("соль не влияет на хеш")
	}
	if !auth.VerifyPassword("qwerty123", "salt", h1) {
		t.Fatal("верный пароль не прошёл проверку")
	}
	if auth.VerifyPassword("qwerty124", "salt", h1) {
		t.Fatal("неверный пароль прошёл проверку")
	}
}
