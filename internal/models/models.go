package models

import (
	"database/sql"
	"time"
)

type Role string

const (
	Teacher Role = "teacher"
	Student Role = "student"
)

// Статусы варианта ДЗ. Переходы assigned → submitted → checked
// делает внешний процесс проверки, мы их только читаем.
const (
	VariantAssigned  = "assigned"
	VariantSubmitted = "submitted"
	VariantChecked   = "checked"
)

const (
	SubmissionSubmitted = "submitted"
	SubmissionChecked   = "checked"
)

type User struct {
	ID           int64
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

type Group struct {
	ID        int64
	Name      string
	TeacherID int64
	CreatedAt time.Time
}

type Enrollment struct {
	ID         int64
	GroupID    int64
	StudentID  int64
	EnrolledAt time.Time
}

type Task struct {
	ID         int64
	Title      string
	Text       string
	Topic      string
	Difficulty int
	Type       string
	EgeNumber  int
	CreatedBy  int64
	CreatedAt  time.Time
}

type HomeworkSet struct {
	ID          int64
	Title       string
	Description string
	CreatedBy   int64
	CreatedAt   time.Time
}

type HomeworkVariant struct {
	ID         int64
	SetID      int64
	StudentID  int64
	Status     string
	FinalScore sql.NullInt64
	IsDebt     bool
	CreatedAt  time.Time
}

type VariantItem struct {
	ID        int64
	VariantID int64
	TaskID    int64
}

type Submission struct {
	ID              int64
	StudentID       int64
	VariantItemID   int64
	AnswerText      string
	AnswerFileURL   string
	AnswerCode      string
	AnswerImageURL  string
	AnswerTableJSON string
	Score           sql.NullInt64
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Theory struct {
	ID        int64
	Title     string
	Content   string
	EgeNumber int
	FileURL   sql.NullString
	CreatedBy int64
	CreatedAt time.Time
}
