package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/edu-platform/internal/models"
)

var ErrForeignTasks = errors.New("некоторые задачи не найдены или не принадлежат вам")

// CreateHomeworkSet создаёт набор и привязывает задачи одной транзакцией.
// Если хоть одна задача чужая или отсутствует — откат целиком.
func CreateHomeworkSet(ctx context.Context, database *sql.DB, teacherID int64, title, description string, taskIDs []int64) (*models.HomeworkSet, error) {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// плейсхолдеры собираются вручную: IN со списком id
	ph := make([]string, len(taskIDs))
	args := make([]any, 0, len(taskIDs)+1)
	args = append(args, teacherID)
	for i, id := range taskIDs {
		ph[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	var n int
	if err := tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(DISTINCT id) FROM tasks WHERE created_by = $1 AND id IN (%s)
	`, strings.Join(ph, ", ")), args...).Scan(&n); err != nil {
		return nil, err
	}
	if n != len(taskIDs) {
		return nil, ErrForeignTasks
	}

	var set models.HomeworkSet
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO homework_sets (title, description, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, title, description, created_by, created_at
	`, title, description, teacherID).Scan(&set.ID, &set.Title, &set.Description, &set.CreatedBy, &set.CreatedAt); err != nil {
		return nil, err
	}

	// порядок вставки фиксирует порядок задач в наборе
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO homework_tasks (set_id, task_id) VALUES ($1, $2)`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stmt.Close() }()
	for _, taskID := range taskIDs {
		if _, err := stmt.ExecContext(ctx, set.ID, taskID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &set, nil
}

// GetHomeworkSet — (nil, nil), если набора нет.
func GetHomeworkSet(ctx context.Context, database *sql.DB, setID int64) (*models.HomeworkSet, error) {
	row := database.QueryRowContext(ctx, `
		SELECT id, title, description, created_by, created_at
		FROM homework_sets WHERE id = $1
	`, setID)
	var s models.HomeworkSet
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.CreatedBy, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type SetWithCount struct {
	models.HomeworkSet
	TaskCount int
}

func ListTeacherSets(ctx context.Context, database *sql.DB, teacherID int64) ([]SetWithCount, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT hs.id, hs.title, hs.description, hs.created_by, hs.created_at, COUNT(ht.id)
		FROM homework_sets hs
		LEFT JOIN homework_tasks ht ON ht.set_id = hs.id
		WHERE hs.created_by = $1
		GROUP BY hs.id, hs.title, hs.description, hs.created_by, hs.created_at
		ORDER BY hs.created_at DESC
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SetWithCount
	for rows.Next() {
		var s SetWithCount
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.CreatedBy, &s.CreatedAt, &s.TaskCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListSetTaskIDs — задачи набора в порядке добавления.
func ListSetTaskIDs(ctx context.Context, database *sql.DB, setID int64) ([]int64, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT task_id FROM homework_tasks WHERE set_id = $1 ORDER BY id
	`, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
