package db

import (
	"context"
	"database/sql"
	"errors"
)

type AssignResult struct {
	VariantsCreated int
	TotalStudents   int
}

// AssignSetToGroup раздаёт набор всем студентам группы: по варианту на
// студента и по variant_item на каждую задачу набора, с сохранением
// порядка задач. Повторный вызов идемпотентен — студенты, у которых
// вариант уже есть, пропускаются и не получают дублей; гонка двух
// одновременных раздач гасится уникальным индексом (set_id, student_id),
// конфликт трактуется как «уже есть, пропустить».
func AssignSetToGroup(ctx context.Context, database *sql.DB, setID, groupID int64) (AssignResult, error) {
	var res AssignResult

	taskIDs, err := ListSetTaskIDs(ctx, database, setID)
	if err != nil {
		return res, err
	}

	studentIDs, err := listGroupStudentIDs(ctx, database, groupID)
	if err != nil {
		return res, err
	}
	res.TotalStudents = len(studentIDs)

	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	itemStmt, err := tx.PrepareContext(ctx, `INSERT INTO variant_items (variant_id, task_id) VALUES ($1, $2)`)
	if err != nil {
		return res, err
	}
	defer func() { _ = itemStmt.Close() }()

	for _, studentID := range studentIDs {
		var variantID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO homework_variants (set_id, student_id, status)
			VALUES ($1, $2, 'assigned')
			ON CONFLICT (set_id, student_id) DO NOTHING
			RETURNING id
		`, setID, studentID).Scan(&variantID)
		if errors.Is(err, sql.ErrNoRows) {
			// вариант уже существует — студент в счёт total попадает,
			// в variants_created нет
			continue
		}
		if err != nil {
			return res, err
		}
		for _, taskID := range taskIDs {
			if _, err := itemStmt.ExecContext(ctx, variantID, taskID); err != nil {
				return res, err
			}
		}
		res.VariantsCreated++
	}

	if err := tx.Commit(); err != nil {
		return AssignResult{TotalStudents: res.TotalStudents}, err
	}
	return res, nil
}

// listGroupStudentIDs — id зачисленных в группу пользователей с ролью student.
func listGroupStudentIDs(ctx context.Context, database *sql.DB, groupID int64) ([]int64, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT u.id
		FROM users u
		JOIN enrollments e ON e.student_id = u.id
		WHERE e.group_id = $1 AND u.role = 'student'
		ORDER BY e.id
	`, groupID)
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

// GetVariantOwner — student_id варианта; (0, nil), если варианта нет.
func GetVariantOwner(ctx context.Context, database *sql.DB, variantID int64) (int64, error) {
	var ownerID int64
	err := database.QueryRowContext(ctx,
		`SELECT student_id FROM homework_variants WHERE id = $1`, variantID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return ownerID, nil
}
