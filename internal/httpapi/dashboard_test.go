package httpapi

import (
	"database/sql"
	"testing"
	"time"

	"github.com/Spok95/edu-platform/internal/db"
	"github.com/Spok95/edu-platform/internal/models"
)

func score(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}

func TestClassifyVariant(t *testing.T) {
	cases := []struct {
		name   string
		status string
		avg    sql.NullFloat64
		want   string
	}{
		{"проверенный уходит в историю даже со 100", models.VariantChecked, score(100), bucketHistory},
		{"сданный ждёт проверки в долгах даже со 100", models.VariantSubmitted, score(100), bucketDebts},
		{"назначенный с высоким баллом активен", models.VariantAssigned, score(95), bucketActive},
		{"назначенный с низким баллом — долг", models.VariantAssigned, score(80), bucketDebts},
		{"балл ровно на пороге — не долг", models.VariantAssigned, score(90), bucketActive},
		{"без оценок судим только по статусу", models.VariantAssigned, sql.NullFloat64{}, bucketActive},
		{"проверенный без оценок — история", models.VariantChecked, sql.NullFloat64{}, bucketHistory},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := classifyVariant(c.status, c.avg); got != c.want {
				t.Fatalf("status=%s avg=%+v: ожидали %s, получили %s", c.status, c.avg, c.want, got)
			}
		})
	}
}

// Элемент дашборда несёт полный набор ключей: avg_score округлён до
// целого, а без единой оценки — явный null.
func TestDashboardItem_Shape(t *testing.T) {
	row := db.DashboardRow{
		VariantID: 5, Status: models.VariantAssigned,
		CreatedAt: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		Title:     "ДЗ №1", TotalTasks: 4, CheckedTasks: 1,
		AvgScore: score(86.6),
	}
	d := dashboardItem(row)
	if d["id"] != int64(5) || d["avg_score"] != 87 {
		t.Fatalf("неожиданный элемент: %v", d)
	}
	if d["created_at"] != "2026-02-01T12:00:00Z" {
		t.Fatalf("неожиданный created_at: %v", d["created_at"])
	}

	row.AvgScore = sql.NullFloat64{}
	d = dashboardItem(row)
	if v, ok := d["avg_score"]; !ok || v != nil {
		t.Fatalf("без оценок avg_score должен быть явным null: %v", d)
	}
}

// Строка статистики без варианта: поля варианта — явные null,
// счётчики — нули, ключ статуса называется variant_status.
func TestStatRowDTO_StudentWithoutVariant(t *testing.T) {
	d := statRowDTO(db.StatRow{StudentID: 3, FullName: "Новенький", Email: "new@example.com"})

	for _, key := range []string{"variant_id", "set_id", "homework_title", "variant_status", "final_score"} {
		v, ok := d[key]
		if !ok || v != nil {
			t.Fatalf("%s должен быть явным null, получили %v (есть: %v)", key, v, ok)
		}
	}
	for _, key := range []string{"total_tasks", "submitted_tasks", "current_score"} {
		if d[key] != 0 {
			t.Fatalf("%s должен быть нулём, получили %v", key, d[key])
		}
	}
}

func TestStatRowDTO_WithVariant(t *testing.T) {
	d := statRowDTO(db.StatRow{
		StudentID: 1, FullName: "Иванов", Email: "i@example.com",
		VariantID:     sql.NullInt64{Int64: 9, Valid: true},
		SetID:         sql.NullInt64{Int64: 2, Valid: true},
		HomeworkTitle: sql.NullString{String: "ДЗ №1", Valid: true},
		VariantStatus: sql.NullString{String: models.VariantSubmitted, Valid: true},
		FinalScore:    sql.NullInt64{Int64: 92, Valid: true},
		TotalTasks:    4, SubmittedTasks: 3, CurrentScore: 250,
	})
	if d["variant_status"] != models.VariantSubmitted {
		t.Fatalf("ожидали ключ variant_status, получили %v", d)
	}
	if d["variant_id"] != int64(9) || d["final_score"] != int64(92) || d["current_score"] != 250 {
		t.Fatalf("неожиданная строка: %v", d)
	}
}
