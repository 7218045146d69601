package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/edu-platform/internal/ctxutil"
	"github.com/Spok95/edu-platform/internal/db"
	"github.com/Spok95/edu-platform/internal/models"
)

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := ctxutil.UserID(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	readBody(r, &req)
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErr(w, http.StatusBadRequest, "Название группы обязательно")
		return
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	g, err := db.CreateGroup(ctx, s.db, teacherID, req.Name)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"group": map[string]any{
		"id": g.ID, "name": g.Name, "teacher_id": g.TeacherID,
		"created_at": g.CreatedAt.Format(time.RFC3339),
	}})
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	teacherID, _ := ctxutil.UserID(r.Context())

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	groups, err := db.ListTeacherGroups(ctx, s.db, teacherID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		out = append(out, map[string]any{
			"id": g.ID, "name": g.Name, "student_count": g.StudentCount,
			"created_at": g.CreatedAt.Format(time.RFC3339),
		})
	}
	writeOK(w, http.StatusOK, map[string]any{"groups": out})
}

// ownGroup грузит группу и сверяет владельца. Сначала существование
// (404), потом принадлежность (403) — в этом порядке.
func (s *Server) ownGroup(w http.ResponseWriter, r *http.Request, groupID int64) *models.Group {
	teacherID, _ := ctxutil.UserID(r.Context())

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	g, err := db.GetGroup(ctx, s.db, groupID)
	if err != nil {
		s.serverError(w, r, err)
		return nil
	}
	if g == nil {
		writeErr(w, http.StatusNotFound, "Группа не найдена")
		return nil
	}
	if g.TeacherID != teacherID {
		writeErr(w, http.StatusForbidden, "Группа не принадлежит вам")
		return nil
	}
	return g
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	groupID, ok := queryID(r, "group_id")
	if !ok {
		writeErr(w, http.StatusBadRequest, "group_id обязателен")
		return
	}
	if s.ownGroup(w, r, groupID) == nil {
		return
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	students, err := db.ListGroupStudents(ctx, s.db, groupID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(students))
	for _, st := range students {
		out = append(out, map[string]any{
			"id": st.StudentID, "full_name": st.FullName, "email": st.Email,
			"enrolled_at": st.EnrolledAt.Format(time.RFC3339),
		})
	}
	writeOK(w, http.StatusOK, map[string]any{"students": out})
}

func (s *Server) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupID int64  `json:"group_id"`
		Email   string `json:"email"`
	}
	readBody(r, &req)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.GroupID == 0 || req.Email == "" {
		writeErr(w, http.StatusBadRequest, "group_id и email обязательны")
		return
	}
	if s.ownGroup(w, r, req.GroupID) == nil {
		return
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	student, err := db.GetUserByEmail(ctx, s.db, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		writeErr(w, http.StatusNotFound, "Пользователь с таким email не найден")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if student.Role != models.Student {
		writeErr(w, http.StatusBadRequest, "Пользователь не является студентом")
		return
	}

	e, err := db.Enroll(ctx, s.db, req.GroupID, student.ID)
	if errors.Is(err, db.ErrAlreadyEnrolled) {
		writeErr(w, http.StatusBadRequest, "Студент уже добавлен в группу")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, map[string]any{"enrollment": map[string]any{
		"id": e.ID, "group_id": e.GroupID, "student_id": e.StudentID,
		"enrolled_at": e.EnrolledAt.Format(time.RFC3339),
	}})
}

// queryID парсит положительный числовой query-параметр.
func queryID(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
