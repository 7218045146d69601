package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/edu-platform/internal/models"
)

func CreateTheory(ctx context.Context, database *sql.DB, t models.Theory) (*models.Theory, error) {
	row := database.QueryRowContext(ctx, `
		INSERT INTO theory (title, content, ege_number, file_url, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, title, content, ege_number, file_url, created_by, created_at
	`, t.Title, t.Content, t.EgeNumber, t.FileURL, t.CreatedBy)
	var out models.Theory
	if err := row.Scan(&out.ID, &out.Title, &out.Content, &out.EgeNumber,
		&out.FileURL, &out.CreatedBy, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTheory — материалы, опционально по номеру задания ЕГЭ.
func ListTheory(ctx context.Context, database *sql.DB, egeNumber *int) ([]models.Theory, error) {
	q := `
		SELECT id, title, content, ege_number, file_url, created_by, created_at
		FROM theory`
	var args []any
	if egeNumber != nil {
		q += ` WHERE ege_number = $1`
		args = append(args, *egeNumber)
	}
	q += ` ORDER BY ege_number, created_at DESC`

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Theory
	for rows.Next() {
		var t models.Theory
		if err := rows.Scan(&t.ID, &t.Title, &t.Content, &t.EgeNumber,
			&t.FileURL, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
