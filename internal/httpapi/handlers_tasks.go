package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/edu-platform/internal/ctxutil"
	"github.com/Spok95/edu-platform/internal/db"
	"github.com/Spok95/edu-platform/internal/models"
)

func taskDTO(t models.Task) map[string]any {
	return map[string]any{
		"id": t.ID, "title": t.Title, "text": t.Text, "topic": t.Topic,
		"difficulty": t.Difficulty, "type": t.Type, "ege_number": t.EgeNumber,
		"created_at": t.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := ctxutil.UserID(r.Context())

	var req struct {
		Title      string `json:"title"`
		Text       string `json:"text"`
		Topic      string `json:"topic"`
		Difficulty int    `json:"difficulty"`
		Type       string `json:"type"`
		EgeNumber  int    `json:"ege_number"`
	}
	readBody(r, &req)
	req.Title = strings.TrimSpace(req.Title)
	req.Text = strings.TrimSpace(req.Text)
	if req.Title == "" || req.Text == "" {
		writeErr(w, http.StatusBadRequest, "Название и текст задачи обязательны")
		return
	}
	if req.Difficulty == 0 {
		req.Difficulty = 1
	}
	if req.Type == "" {
		req.Type = "text"
	}
	if req.EgeNumber == 0 {
		req.EgeNumber = 1
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	t, err := db.CreateTask(ctx, s.db, models.Task{
		Title: req.Title, Text: req.Text, Topic: req.Topic,
		Difficulty: req.Difficulty, Type: req.Type, EgeNumber: req.EgeNumber,
		CreatedBy: teacherID,
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"task": taskDTO(*t)})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := ctxutil.UserID(r.Context())

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	tasks, err := db.ListTeacherTasks(ctx, s.db, teacherID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskDTO(t))
	}
	writeOK(w, http.StatusOK, map[string]any{"tasks": out})
}

func (s *Server) handleCreateTheory(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := ctxutil.UserID(r.Context())

	var req struct {
		Title     string `json:"title"`
		Content   string `json:"content"`
		EgeNumber int    `json:"ege_number"`
		FileURL   string `json:"file_url"`
	}
	readBody(r, &req)
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		writeErr(w, http.StatusBadRequest, "Название и содержание обязательны")
		return
	}
	if req.EgeNumber == 0 {
		req.EgeNumber = 1
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	t, err := db.CreateTheory(ctx, s.db, models.Theory{
		Title: req.Title, Content: req.Content, EgeNumber: req.EgeNumber,
		FileURL:   sql.NullString{String: req.FileURL, Valid: req.FileURL != ""},
		CreatedBy: teacherID,
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"theory": theoryDTO(*t)})
}

func (s *Server) handleListTheory(w http.ResponseWriter, r *http.Request) {
	var egeNumber *int
	if raw := r.URL.Query().Get("ege_number"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErr(w, http.StatusBadRequest, "Некорректный ege_number")
			return
		}
		egeNumber = &n
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	items, err := db.ListTheory(ctx, s.db, egeNumber)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(items))
	for _, t := range items {
		out = append(out, theoryDTO(t))
	}
	writeOK(w, http.StatusOK, map[string]any{"theory": out})
}

func theoryDTO(t models.Theory) map[string]any {
	d := map[string]any{
		"id": t.ID, "title": t.Title, "content": t.Content,
		"ege_number": t.EgeNumber,
		"created_at": t.CreatedAt.Format(time.RFC3339),
	}
	if t.FileURL.Valid {
		d["file_url"] = t.FileURL.String
	}
	return d
}
