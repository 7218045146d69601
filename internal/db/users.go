package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Spok95/edu-platform/internal/models"
)

var ErrEmailTaken = errors.New("email уже используется")

func CreateUser(ctx context.Context, database *sql.DB, u models.User) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO users (full_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`, u.FullName, u.Email, u.PasswordHash, string(u.Role)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// конфликт по email — строка не вставлена
		return 0, ErrEmailTaken
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func GetUserByEmail(ctx context.Context, database *sql.DB, email string) (*models.User, error) {
	row := database.QueryRowContext(ctx, `
		SELECT id, full_name, email, password_hash, role, created_at
		FROM users WHERE email = $1
	`, email)
	var u models.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByID(ctx context.Context, database *sql.DB, id int64) (*models.User, error) {
	row := database.QueryRowContext(ctx, `
		SELECT id, full_name, email, password_hash, role, created_at
		FROM users WHERE id = $1
	`, id)
	var u models.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile меняет только имя и/или email. Роль и хеш пароля этой
// операцией не трогаются никогда. Занятость email не проверяется
// заранее: гонку с параллельной регистрацией решает уникальный индекс,
// его нарушение трактуется как ErrEmailTaken.
func UpdateProfile(ctx context.Context, database *sql.DB, userID int64, fullName, email string) (*models.User, error) {
	row := database.QueryRowContext(ctx, `
		UPDATE users SET
			full_name = CASE WHEN $1 <> '' THEN $1 ELSE full_name END,
			email     = CASE WHEN $2 <> '' THEN $2 ELSE email END
		WHERE id = $3
		RETURNING id, full_name, email, password_hash, role, created_at
	`, fullName, email, userID)
	var u models.User
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &u, nil
}

// isUniqueViolation — нарушение уникального индекса (SQLSTATE 23505).
// pgx отдаёт типизированную ошибку; lib/pq из интеграционных тестов
// распознаём по тексту.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}
