package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/Spok95/edu-platform/internal/auth"
	"github.com/Spok95/edu-platform/internal/ctxutil"
	"github.com/Spok95/edu-platform/internal/db"
	"github.com/Spok95/edu-platform/internal/models"
)

type userDTO struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func toUserDTO(u *models.User) userDTO {
	return userDTO{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: string(u.Role)}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	readBody(r, &req)

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		writeErr(w, http.StatusBadRequest, "Все поля обязательны")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeErr(w, http.StatusBadRequest, "Некорректный email")
		return
	}
	if len(req.Password) < 6 {
		writeErr(w, http.StatusBadRequest, "Пароль должен быть не короче 6 символов")
		return
	}
	role := models.Role(req.Role)
	if role != models.Teacher && role != models.Student {
		writeErr(w, http.StatusBadRequest, "Роль должна быть student или teacher")
		return
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	id, err := db.CreateUser(ctx, s.db, models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: auth.HashPassword(req.Password, s.cfg.SystemSalt),
		Role:         role,
	})
	if errors.Is(err, db.ErrEmailTaken) {
		writeErr(w, http.StatusBadRequest, "Пользователь с таким email уже существует")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	writeOK(w, http.StatusCreated, map[string]any{"user": userDTO{
		ID: id, FullName: req.FullName, Email: req.Email, Role: req.Role,
	}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	readBody(r, &req)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeErr(w, http.StatusBadRequest, "Email и пароль обязательны")
		return
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	u, err := db.GetUserByEmail(ctx, s.db, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		// одно сообщение на «нет пользователя» и «не тот пароль»,
		// чтобы не подсвечивать, какие email зарегистрированы
		writeErr(w, http.StatusUnauthorized, "Неверный email или пароль")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if !auth.VerifyPassword(req.Password, s.cfg.SystemSalt, u.PasswordHash) {
		writeErr(w, http.StatusUnauthorized, "Неверный email или пароль")
		return
	}

	token, err := auth.IssueToken(s.cfg.JWTSecret, u, s.cfg.TokenTTL)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserDTO(u),
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := ctxutil.UserID(r.Context())

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	u, err := db.GetUserByID(ctx, s.db, userID)
	if errors.Is(err, sql.ErrNoRows) {
		writeErr(w, http.StatusNotFound, "Пользователь не найден")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"user":          toUserDTO(u),
		"registered_at": u.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := ctxutil.UserID(r.Context())

	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
	}
	readBody(r, &req)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" && req.Email == "" {
		writeErr(w, http.StatusBadRequest, "Нечего обновлять")
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			writeErr(w, http.StatusBadRequest, "Некорректный email")
			return
		}
	}

	ctx, cancel := ctxutil.WithDBTimeout(r.Context())
	defer cancel()
	u, err := db.UpdateProfile(ctx, s.db, userID, req.FullName, req.Email)
	if errors.Is(err, db.ErrEmailTaken) {
		writeErr(w, http.StatusBadRequest, "Пользователь с таким email уже существует")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"user": toUserDTO(u)})
}
