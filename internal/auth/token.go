package auth

import (
	"errors"
	"time"

	"github.com/Spok95/edu-platform/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Ошибки верификатора. Expired отделён от Malformed: часть ручек
// показывает пользователю «токен истёк» отдельным сообщением.
var (
	ErrNoToken = errors.New("токен не предоставлен")
	ErrExpired = errors.New("токен истек")
	ErrInvalid = errors.New("неверный токен")
)

type Claims struct {
	UserID int64       `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken подписывает HS256-токен с ttl (7 дней по конфигу).
func IssueToken(secret string, u *models.User, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secret))
}

// ParseToken проверяет подпись и срок, но НЕ роль — роль сверяет
// вызывающая ручка по требуемой операции.
func ParseToken(secret, raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrNoToken
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// защита от подмены алгоритма
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}
