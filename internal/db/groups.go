package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Spok95/edu-platform/internal/models"
)

var ErrAlreadyEnrolled = errors.New("студент уже добавлен в группу")

func CreateGroup(ctx context.Context, database *sql.DB, teacherID int64, name string) (*models.Group, error) {
	row := database.QueryRowContext(ctx, `
		INSERT INTO groups (name, teacher_id)
		VALUES ($1, $2)
		RETURNING id, name, teacher_id, created_at
	`, name, teacherID)
	var g models.Group
	if err := row.Scan(&g.ID, &g.Name, &g.TeacherID, &g.CreatedAt); err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGroup возвращает (nil, nil), если группы нет: вызывающему нужно
// отличать «не найдено» (404) от ошибки БД (500).
func GetGroup(ctx context.Context, database *sql.DB, groupID int64) (*models.Group, error) {
	row := database.QueryRowContext(ctx, `
		SELECT id, name, teacher_id, created_at FROM groups WHERE id = $1
	`, groupID)
	var g models.Group
	err := row.Scan(&g.ID, &g.Name, &g.TeacherID, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

type GroupWithCount struct {
	models.Group
	StudentCount int
}

func ListTeacherGroups(ctx context.Context, database *sql.DB, teacherID int64) ([]GroupWithCount, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT g.id, g.name, g.teacher_id, g.created_at, COUNT(e.id)
		FROM groups g
		LEFT JOIN enrollments e ON e.group_id = g.id
		WHERE g.teacher_id = $1
		GROUP BY g.id, g.name, g.teacher_id, g.created_at
		ORDER BY g.created_at DESC
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GroupWithCount
	for rows.Next() {
		var g GroupWithCount
		if err := rows.Scan(&g.ID, &g.Name, &g.TeacherID, &g.CreatedAt, &g.StudentCount); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

type EnrolledStudent struct {
	EnrollmentID int64
	StudentID    int64
	FullName     string
	Email        string
	EnrolledAt   time.Time
}

func ListGroupStudents(ctx context.Context, database *sql.DB, groupID int64) ([]EnrolledStudent, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT e.id, u.id, u.full_name, u.email, e.enrolled_at
		FROM enrollments e
		JOIN users u ON u.id = e.student_id
		WHERE e.group_id = $1
		ORDER BY e.enrolled_at DESC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EnrolledStudent
	for rows.Next() {
		var s EnrolledStudent
		if err := rows.Scan(&s.EnrollmentID, &s.StudentID, &s.FullName, &s.Email, &s.EnrolledAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Enroll добавляет студента в группу. Повторная запись гасится
// уникальным индексом (group_id, student_id) и превращается в ErrAlreadyEnrolled.
func Enroll(ctx context.Context, database *sql.DB, groupID, studentID int64) (*models.Enrollment, error) {
	row := database.QueryRowContext(ctx, `
		INSERT INTO enrollments (group_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (group_id, student_id) DO NOTHING
		RETURNING id, group_id, student_id, enrolled_at
	`, groupID, studentID)
	var e models.Enrollment
	err := row.Scan(&e.ID, &e.GroupID, &e.StudentID, &e.EnrolledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlreadyEnrolled
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
