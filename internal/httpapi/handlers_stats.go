package httpapi

import (
	"database/sql"
	"math"
	"mime"
	"net/http"
	"time"

	"github.com/Spok95/edu-platform/internal/ctxutil"
	"github.com/Spok95/edu-platform/internal/db"
	"github.com/Spok95/edu-platform/internal/export"
	"github.com/Spok95/edu-platform/internal/models"
)

// Средний балл ниже порога отправляет проверенное-частично ДЗ в долги.
// Число унаследовано от действующего регламента школы.
const debtScoreThreshold = 90

// Корзины дашборда.
const (
	bucketActive  = "active"
	bucketDebts   = "debts"
	bucketHistory = "history"
)

// classifyVariant раскладывает вариант по корзине:
// проверен целиком — история; сдан и ждёт проверки, либо средний балл
// по оценённым работам ниже порога — долги; иначе — активные.
// Вариант без единой оценки судится только по статусу.
func classifyVariant(status string, avgScore sql.NullFloat64) string {
	switch {
	case status == models.VariantChecked:
		return bucketHistory
	case status == models.VariantSubmitted:
		return bucketDebts
	case avgScore.Valid && avgScore.Float64 < debtScoreThreshold:
		return bucketDebts
	}
	return bucketActive
}

// dashboardItem — элемент корзины. Все ключи присутствуют всегда;
// avg_score округляется до целого и равен null, пока оценок нет.
func dashboardItem(row db.DashboardRow) map[string]any {
	var avg any
	if row.AvgScore.Valid {
		avg = int(math.Round(row.AvgScore.Float64))
	}
	return map[string]any{
		"id":            row.VariantID,
		"title":         row.Title,
		"description":   row.Description,
		"status":        row.Status,
		"total_tasks":   row.TotalTasks,
		"checked_tasks": row.CheckedTasks,
		"avg_score":     avg,
		"created_at":    row.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	studentID, _ := ctxutil.UserID(r.Context())

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	rows, err := db.StudentDashboardRows(ctx, s.db, studentID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	buckets := map[string][]map[string]any{
		bucketActive:  {},
		bucketDebts:   {},
		bucketHistory: {},
	}
	for _, row := range rows {
		b := classifyVariant(row.Status, row.AvgScore)
		buckets[b] = append(buckets[b], dashboardItem(row))
	}

	writeOK(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"active_homework": buckets[bucketActive],
			"debts":           buckets[bucketDebts],
			"history":         buckets[bucketHistory],
			"stats": map[string]int{
				"total_active":    len(buckets[bucketActive]),
				"total_debts":     len(buckets[bucketDebts]),
				"total_completed": len(buckets[bucketHistory]),
			},
		},
	})
}

func (s *Server) handleDebts(w http.ResponseWriter, r *http.Request) {
	studentID, _ := ctxutil.UserID(r.Context())

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	rows, err := db.StudentDebts(ctx, s.db, studentID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(rows))
	for _, d := range rows {
		item := map[string]any{
			"variant_id":    d.VariantID,
			"title":         d.Title,
			"description":   d.Description,
			"status":        d.Status,
			"total_tasks":   d.TotalTasks,
			"checked_tasks": d.CheckedTasks,
			"assigned_at":   d.CreatedAt.Format(time.RFC3339),
		}
		if d.FinalScore.Valid {
			item["final_score"] = d.FinalScore.Int64
		}
		out = append(out, item)
	}
	writeOK(w, http.StatusOK, map[string]any{"debts": out, "total": len(out)})
}

// loadGroupStatistics — общая часть JSON-ручки и экспорта:
// проверки владения + выборка, с опциональным фильтром по набору.
func (s *Server) loadGroupStatistics(w http.ResponseWriter, r *http.Request) (*models.Group, []db.StatRow, bool) {
	groupID, ok := queryID(r, "group_id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "group_id обязателен")
		return nil, nil, false
	}
	g := s.ownGroup(w, r, groupID)
	if g == nil {
		return nil, nil, false
	}

	var setID *int64
	if id, ok := queryID(r, "set_id"); ok {
		setID = &id
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	stats, err := db.GroupStatistics(ctx, s.db, groupID, setID)
	if err != nil {
		s.serverError(w, r, err)
		return nil, nil, false
	}
	return g, stats, true
}

func (s *Server) handleGroupStatistics(w http.ResponseWriter, r *http.Request) {
	g, stats, ok := s.loadGroupStatistics(w, r)
	if !ok {
		return
	}

	out := make([]map[string]any, 0, len(stats))
	for _, row := range stats {
		out = append(out, statRowDTO(row))
	}
	writeOK(w, http.StatusOK, map[string]any{
		"group":      map[string]any{"id": g.ID, "name": g.Name},
		"statistics": out,
	})
}

// statRowDTO — строка статистики. Набор ключей постоянный: у студента
// без варианта поля варианта — null, счётчики — нули.
func statRowDTO(row db.StatRow) map[string]any {
	d := map[string]any{
		"student_id":      row.StudentID,
		"full_name":       row.FullName,
		"email":           row.Email,
		"variant_id":      nil,
		"set_id":          nil,
		"homework_title":  nil,
		"variant_status":  nil,
		"final_score":     nil,
		"total_tasks":     row.TotalTasks,
		"submitted_tasks": row.SubmittedTasks,
		"current_score":   row.CurrentScore,
	}
	if row.VariantID.Valid {
		d["variant_id"] = row.VariantID.Int64
		d["set_id"] = row.SetID.Int64
		d["homework_title"] = row.HomeworkTitle.String
		d["variant_status"] = row.VariantStatus.String
	}
	if row.FinalScore.Valid {
		d["final_score"] = row.FinalScore.Int64
	}
	return d
}

func (s *Server) handleStatisticsExport(w http.ResponseWriter, r *http.Request) {
	g, stats, ok := s.loadGroupStatistics(w, r)
	if !ok {
		return
	}

	wb, err := export.NewWorkbook([]export.SheetSpec{
		export.GroupStatisticsSheet(g.Name, stats),
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	filename := export.BuildStatisticsFilename(g.Name)
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	if err := wb.WriteTo(w); err != nil {
		// заголовки уже ушли, остаётся залогировать
		op, _ := ctxutil.Op(r.Context())
		s.log.Errorw("xlsx write", "op", op, "err", err)
	}
}
