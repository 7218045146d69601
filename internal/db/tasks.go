package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/edu-platform/internal/models"
)

func CreateTask(ctx context.Context, database *sql.DB, t models.Task) (*models.Task, error) {
	row := database.QueryRowContext(ctx, `
		INSERT INTO tasks (title, text, topic, difficulty, type, ege_number, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, title, text, topic, difficulty, type, ege_number, created_by, created_at
	`, t.Title, t.Text, t.Topic, t.Difficulty, t.Type, t.EgeNumber, t.CreatedBy)
	var out models.Task
	if err := row.Scan(&out.ID, &out.Title, &out.Text, &out.Topic, &out.Difficulty,
		&out.Type, &out.EgeNumber, &out.CreatedBy, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

func ListTeacherTasks(ctx context.Context, database *sql.DB, teacherID int64) ([]models.Task, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT id, title, text, topic, difficulty, type, ege_number, created_by, created_at
		FROM tasks
		WHERE created_by = $1
		ORDER BY created_at DESC
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Text, &t.Topic, &t.Difficulty,
			&t.Type, &t.EgeNumber, &t.CreatedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
