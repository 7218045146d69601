package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Spok95/edu-platform/internal/ctxutil"
	"github.com/Spok95/edu-platform/internal/db"
	"github.com/Spok95/edu-platform/internal/metrics"
)

func (s *Server) handleCreateSet(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := ctxutil.UserID(r.Context())

	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		TaskIDs     []int64 `json:"task_ids"`
	}
	readBody(r, &req)
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeErr(w, http.StatusBadRequest, "Название набора обязательно")
		return
	}
	if len(req.TaskIDs) == 0 {
		writeErr(w, http.StatusBadRequest, "Нужна хотя бы одна задача")
		return
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	set, err := db.CreateHomeworkSet(ctx, s.db, teacherID, req.Title, req.Description, req.TaskIDs)
	if errors.Is(err, db.ErrForeignTasks) {
		writeErr(w, http.StatusBadRequest, "Некоторые задачи не найдены или не принадлежат вам")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"set": map[string]any{
		"id": set.ID, "title": set.Title, "description": set.Description,
		"task_count": len(req.TaskIDs),
		"created_at": set.CreatedAt.Format(time.RFC3339),
	}})
}

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := ctxutil.UserID(r.Context())

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	sets, err := db.ListTeacherSets(ctx, s.db, teacherID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(sets))
	for _, set := range sets {
		out = append(out, map[string]any{
			"id": set.ID, "title": set.Title, "description": set.Description,
			"task_count": set.TaskCount,
			"created_at": set.CreatedAt.Format(time.RFC3339),
		})
	}
	writeOK(w, http.StatusOK, map[string]any{"sets": out})
}

// handleAssign — раздача набора группе. Порядок проверок фиксирован:
// группа существует → группа наша → набор существует → набор наш →
// в группе есть студенты. Сама раздача идемпотентна.
func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := ctxutil.UserID(r.Context())

	var req struct {
		SetID   int64 `json:"set_id"`
		GroupID int64 `json:"group_id"`
	}
	readBody(r, &req)
	if req.SetID == 0 || req.GroupID == 0 {
		writeErr(w, http.StatusBadRequest, "set_id и group_id обязательны")
		return
	}
	if s.ownGroup(w, r, req.GroupID) == nil {
		return
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	set, err := db.GetHomeworkSet(ctx, s.db, req.SetID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if set == nil {
		writeErr(w, http.StatusNotFound, "Набор не найден")
		return
	}
	if set.CreatedBy != teacherID {
		writeErr(w, http.StatusForbidden, "Набор не принадлежит вам")
		return
	}

	res, err := db.AssignSetToGroup(ctx, s.db, req.SetID, req.GroupID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if res.TotalStudents == 0 {
		writeErr(w, http.StatusBadRequest, "В группе нет студентов")
		return
	}
	metrics.VariantsCreated.Add(float64(res.VariantsCreated))

	writeOK(w, http.StatusOK, map[string]any{
		"variants_created": res.VariantsCreated,
		"total_students":   res.TotalStudents,
	})
}

func (s *Server) handleMyHomework(w http.ResponseWriter, r *http.Request) {
	studentID, _ := ctxutil.UserID(r.Context())

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	rows, err := db.StudentHomework(ctx, s.db, studentID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(rows))
	for _, hw := range rows {
		d := map[string]any{
			"variant_id":      hw.VariantID,
			"set_id":          hw.SetID,
			"title":           hw.Title,
			"description":     hw.Description,
			"status":          hw.Status,
			"task_count":      hw.TaskCount,
			"submitted_count": hw.SubmittedCount,
			"assigned_at":     hw.CreatedAt.Format(time.RFC3339),
		}
		if hw.FinalScore.Valid {
			d["final_score"] = hw.FinalScore.Int64
		}
		out = append(out, d)
	}
	writeOK(w, http.StatusOK, map[string]any{"homework": out})
}

func (s *Server) handleVariantTasks(w http.ResponseWriter, r *http.Request) {
	studentID, _ := ctxutil.UserID(r.Context())

	variantID, ok := queryID(r, "variant_id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "variant_id обязателен")
		return
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	ownerID, err := db.GetVariantOwner(ctx, s.db, variantID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if ownerID == 0 {
		writeErr(w, http.StatusNotFound, "Вариант не найден")
		return
	}
	if ownerID != studentID {
		writeErr(w, http.StatusForbidden, "Вариант не принадлежит вам")
		return
	}

	rows, err := db.VariantTasks(ctx, s.db, variantID, studentID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(rows))
	for _, t := range rows {
		d := map[string]any{
			"variant_item_id": t.VariantItemID,
			"task_id":         t.TaskID,
			"title":           t.Title,
			"text":            t.Text,
			"type":            t.Type,
			"ege_number":      t.EgeNumber,
			"difficulty":      t.Difficulty,
		}
		if t.SubmissionID.Valid {
			sub := map[string]any{
				"id":     t.SubmissionID.Int64,
				"status": t.SubStatus.String,
			}
			if t.AnswerText.Valid && t.AnswerText.String != "" {
				sub["answer_text"] = t.AnswerText.String
			}
			if t.AnswerFileURL.Valid && t.AnswerFileURL.String != "" {
				sub["answer_file_url"] = t.AnswerFileURL.String
			}
			if t.AnswerCode.Valid && t.AnswerCode.String != "" {
				sub["answer_code"] = t.AnswerCode.String
			}
			if t.AnswerImageURL.Valid && t.AnswerImageURL.String != "" {
				sub["answer_image_url"] = t.AnswerImageURL.String
			}
			if t.AnswerTableJSON.Valid && t.AnswerTableJSON.String != "" {
				sub["answer_table_json"] = t.AnswerTableJSON.String
			}
			if t.Score.Valid {
				sub["score"] = t.Score.Int64
			}
			if t.SubmittedAt.Valid {
				sub["submitted_at"] = t.SubmittedAt.Time.Format(time.RFC3339)
			}
			d["submission"] = sub
		}
		out = append(out, d)
	}
	writeOK(w, http.StatusOK, map[string]any{"tasks": out})
}

// handleSubmit — сдача ответа. Повторная сдача того же задания
// перезаписывает предыдущую целиком (одна строка на задание).
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	studentID, _ := ctxutil.UserID(r.Context())

	var req struct {
		VariantItemID   int64  `json:"variant_item_id"`
		AnswerText      string `json:"answer_text"`
		AnswerFileURL   string `json:"answer_file_url"`
		AnswerCode      string `json:"answer_code"`
		AnswerImageURL  string `json:"answer_image_url"`
		AnswerTableJSON string `json:"answer_table_json"`
	}
	readBody(r, &req)
	if req.VariantItemID == 0 {
		writeErr(w, http.StatusBadRequest, "Укажите variant_item_id")
		return
	}
	payload := db.AnswerPayload{
		Text:      req.AnswerText,
		FileURL:   req.AnswerFileURL,
		Code:      req.AnswerCode,
		ImageURL:  req.AnswerImageURL,
		TableJSON: req.AnswerTableJSON,
	}.Trim()
	if payload.Empty() {
		writeErr(w, http.StatusBadRequest, "Укажите хотя бы один вариант ответа")
		return
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	ownerID, err := db.GetVariantItemOwner(ctx, s.db, req.VariantItemID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if ownerID == 0 {
		writeErr(w, http.StatusNotFound, "Задание не найдено")
		return
	}
	if ownerID != studentID {
		writeErr(w, http.StatusForbidden, "Задание не принадлежит вам")
		return
	}

	sub, err := db.UpsertSubmission(ctx, s.db, studentID, req.VariantItemID, payload)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"submission": map[string]any{
		"id":         sub.ID,
		"status":     sub.Status,
		"created_at": sub.CreatedAt.Format(time.RFC3339),
		"updated_at": sub.UpdatedAt.Format(time.RFC3339),
	}})
}
