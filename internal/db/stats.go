package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// StatRow — строка статистики по (студент, вариант). Студент без единого
// варианта всё равно присутствует — с NULL-полями варианта и нулевыми
// счётчиками (LEFT JOIN, а не INNER).
type StatRow struct {
	StudentID      int64
	FullName       string
	Email          string
	VariantID      sql.NullInt64
	SetID          sql.NullInt64
	HomeworkTitle  sql.NullString
	VariantStatus  sql.NullString
	FinalScore     sql.NullInt64
	TotalTasks     int
	SubmittedTasks int
	CurrentScore   int
}

// GroupStatistics — сводка по группе, опционально отфильтрованная по
// набору ДЗ. Порядок: имя студента, затем название ДЗ.
func GroupStatistics(ctx context.Context, database *sql.DB, groupID int64, setID *int64) ([]StatRow, error) {
	q := `
		SELECT
			u.id, u.full_name, u.email,
			hv.id, hv.set_id, hs.title, hv.status, hv.final_score,
			COUNT(vi.id),
			COUNT(s.id),
			COALESCE(SUM(CASE WHEN s.score IS NOT NULL THEN s.score ELSE 0 END), 0)
		FROM users u
		JOIN enrollments e ON e.student_id = u.id
		LEFT JOIN homework_variants hv ON hv.student_id = u.id`
	args := []any{groupID}
	if setID != nil {
		q += fmt.Sprintf(" AND hv.set_id = $%d", len(args)+1)
		args = append(args, *setID)
	}
	q += `
		LEFT JOIN homework_sets hs ON hs.id = hv.set_id
		LEFT JOIN variant_items vi ON vi.variant_id = hv.id
		LEFT JOIN submissions s ON s.variant_item_id = vi.id AND s.student_id = u.id
		WHERE e.group_id = $1 AND u.role = 'student'
		GROUP BY u.id, u.full_name, u.email, hv.id, hv.set_id, hs.title, hv.status, hv.final_score
		ORDER BY u.full_name, hs.title`

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatRow
	for rows.Next() {
		var r StatRow
		if err := rows.Scan(&r.StudentID, &r.FullName, &r.Email,
			&r.VariantID, &r.SetID, &r.HomeworkTitle, &r.VariantStatus, &r.FinalScore,
			&r.TotalTasks, &r.SubmittedTasks, &r.CurrentScore); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DashboardRow — агрегат по одному варианту студента для дашборда.
// AvgScore считается только по оценённым работам; если ни одной
// оценки нет — NULL.
type DashboardRow struct {
	VariantID    int64
	Status       string
	CreatedAt    time.Time
	Title        string
	Description  string
	TotalTasks   int
	CheckedTasks int
	AvgScore     sql.NullFloat64
}

func StudentDashboardRows(ctx context.Context, database *sql.DB, studentID int64) ([]DashboardRow, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT
			hv.id, hv.status, hv.created_at,
			hs.title, hs.description,
			COUNT(vi.id),
			COUNT(CASE WHEN s.status = 'checked' THEN 1 END),
			AVG(CASE WHEN s.score IS NOT NULL THEN s.score END)
		FROM homework_variants hv
		JOIN homework_sets hs ON hv.set_id = hs.id
		LEFT JOIN variant_items vi ON vi.variant_id = hv.id
		LEFT JOIN submissions s ON s.variant_item_id = vi.id AND s.student_id = $1
		WHERE hv.student_id = $1
		GROUP BY hv.id, hv.status, hv.created_at, hs.title, hs.description
		ORDER BY hv.created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DashboardRow
	for rows.Next() {
		var r DashboardRow
		if err := rows.Scan(&r.VariantID, &r.Status, &r.CreatedAt, &r.Title, &r.Description,
			&r.TotalTasks, &r.CheckedTasks, &r.AvgScore); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// HomeworkRow — вариант студента со сводкой по сдачам.
type HomeworkRow struct {
	VariantID      int64
	SetID          int64
	Title          string
	Description    string
	Status         string
	CreatedAt      time.Time
	FinalScore     sql.NullInt64
	TaskCount      int
	SubmittedCount int
}

func StudentHomework(ctx context.Context, database *sql.DB, studentID int64) ([]HomeworkRow, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT
			hv.id, hs.id, hs.title, hs.description, hv.status, hv.created_at, hv.final_score,
			COUNT(vi.id),
			COUNT(CASE WHEN s.status = 'submitted' THEN 1 END)
		FROM homework_variants hv
		JOIN homework_sets hs ON hs.id = hv.set_id
		LEFT JOIN variant_items vi ON vi.variant_id = hv.id
		LEFT JOIN submissions s ON s.variant_item_id = vi.id AND s.student_id = $1
		WHERE hv.student_id = $1
		GROUP BY hv.id, hs.id, hs.title, hs.description, hv.status, hv.created_at, hv.final_score
		ORDER BY hv.created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HomeworkRow
	for rows.Next() {
		var r HomeworkRow
		if err := rows.Scan(&r.VariantID, &r.SetID, &r.Title, &r.Description, &r.Status,
			&r.CreatedAt, &r.FinalScore, &r.TaskCount, &r.SubmittedCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DebtRow — вариант с выставленным внешней проверкой флагом is_debt.
type DebtRow struct {
	VariantID    int64
	Title        string
	Description  string
	Status       string
	FinalScore   sql.NullInt64
	TotalTasks   int
	CheckedTasks int
	CreatedAt    time.Time
}

func StudentDebts(ctx context.Context, database *sql.DB, studentID int64) ([]DebtRow, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT
			hv.id, hs.title, hs.description, hv.status, hv.final_score, hv.created_at,
			COUNT(vi.id),
			COUNT(CASE WHEN s.status = 'checked' THEN 1 END)
		FROM homework_variants hv
		JOIN homework_sets hs ON hv.set_id = hs.id
		LEFT JOIN variant_items vi ON vi.variant_id = hv.id
		LEFT JOIN submissions s ON s.variant_item_id = vi.id AND s.student_id = $1
		WHERE hv.student_id = $1 AND hv.is_debt = true
		GROUP BY hv.id, hs.title, hs.description, hv.status, hv.final_score, hv.created_at
		ORDER BY hv.created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DebtRow
	for rows.Next() {
		var r DebtRow
		if err := rows.Scan(&r.VariantID, &r.Title, &r.Description, &r.Status, &r.FinalScore,
			&r.CreatedAt, &r.TotalTasks, &r.CheckedTasks); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// VariantTaskRow — задача варианта вместе со сдачей студента (если была).
type VariantTaskRow struct {
	VariantItemID int64
	TaskID        int64
	Title         string
	Text          string
	Type          string
	EgeNumber     int
	Difficulty    int

	SubmissionID    sql.NullInt64
	AnswerText      sql.NullString
	AnswerFileURL   sql.NullString
	AnswerCode      sql.NullString
	AnswerImageURL  sql.NullString
	AnswerTableJSON sql.NullString
	Score           sql.NullInt64
	SubStatus       sql.NullString
	SubmittedAt     sql.NullTime
}

func VariantTasks(ctx context.Context, database *sql.DB, variantID, studentID int64) ([]VariantTaskRow, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT
			vi.id, t.id, t.title, t.text, t.type, t.ege_number, t.difficulty,
			s.id, s.answer_text, s.answer_file_url, s.answer_code,
			s.answer_image_url, s.answer_table_json, s.score, s.status, s.created_at
		FROM variant_items vi
		JOIN tasks t ON t.id = vi.task_id
		LEFT JOIN submissions s ON s.variant_item_id = vi.id AND s.student_id = $2
		WHERE vi.variant_id = $1
		ORDER BY vi.id
	`, variantID, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VariantTaskRow
	for rows.Next() {
		var r VariantTaskRow
		if err := rows.Scan(&r.VariantItemID, &r.TaskID, &r.Title, &r.Text, &r.Type,
			&r.EgeNumber, &r.Difficulty,
			&r.SubmissionID, &r.AnswerText, &r.AnswerFileURL, &r.AnswerCode,
			&r.AnswerImageURL, &r.AnswerTableJSON, &r.Score, &r.SubStatus, &r.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
