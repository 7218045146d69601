package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword — sha256(password + соль системы), hex.
// Схема унаследована от существующей базы пользователей, менять её
// нельзя без миграции всех password_hash.
func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

func VerifyPassword(password, salt, storedHash string) bool {
	h := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(h), []byte(storedHash)) == 1
}
