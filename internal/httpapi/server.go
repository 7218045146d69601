package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/edu-platform/internal/auth"
	"github.com/Spok95/edu-platform/internal/config"
	"github.com/Spok95/edu-platform/internal/ctxutil"
	"github.com/Spok95/edu-platform/internal/metrics"
	"github.com/Spok95/edu-platform/internal/models"
	"github.com/Spok95/edu-platform/internal/observability"
)

type Server struct {
	db  *sql.DB
	cfg *config.Config
	log *zap.SugaredLogger
}

func New(database *sql.DB, cfg *config.Config, log *zap.SugaredLogger) *Server {
	return &Server{db: database, cfg: cfg, log: log}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/api/auth/register", s.handle("auth.register", http.MethodPost, s.handleRegister))
	mux.Handle("/api/auth/login", s.handle("auth.login", http.MethodPost, s.handleLogin))

	mux.Handle("/api/profile", s.handleMethods("profile", map[string]http.HandlerFunc{
		http.MethodGet: s.authed("", s.handleGetProfile),
		http.MethodPut: s.authed("", s.handleUpdateProfile),
	}))

	mux.Handle("/api/groups", s.handleMethods("groups", map[string]http.HandlerFunc{
		http.MethodPost: s.authed(models.Teacher, s.handleCreateGroup),
		http.MethodGet:  s.authed(models.Teacher, s.handleListGroups),
	}))
	mux.Handle("/api/groups/students", s.handleMethods("groups.students", map[string]http.HandlerFunc{
		http.MethodPost: s.authed(models.Teacher, s.handleAddStudent),
		http.MethodGet:  s.authed(models.Teacher, s.handleListStudents),
	}))

	mux.Handle("/api/tasks", s.handleMethods("tasks", map[string]http.HandlerFunc{
		http.MethodPost: s.authed(models.Teacher, s.handleCreateTask),
		http.MethodGet:  s.authed(models.Teacher, s.handleListTasks),
	}))

	mux.Handle("/api/homework/sets", s.handleMethods("homework.sets", map[string]http.HandlerFunc{
		http.MethodPost: s.authed(models.Teacher, s.handleCreateSet),
		http.MethodGet:  s.authed(models.Teacher, s.handleListSets),
	}))
	mux.Handle("/api/homework/assign", s.handle("homework.assign", http.MethodPost,
		s.authed(models.Teacher, s.handleAssign)))
	mux.Handle("/api/homework/my", s.handle("homework.my", http.MethodGet,
		s.authed(models.Student, s.handleMyHomework)))
	mux.Handle("/api/homework/tasks", s.handle("homework.tasks", http.MethodGet,
		s.authed(models.Student, s.handleVariantTasks)))
	mux.Handle("/api/homework/submit", s.handle("homework.submit", http.MethodPost,
		s.authed(models.Student, s.handleSubmit)))

	mux.Handle("/api/statistics/group", s.handle("statistics.group", http.MethodGet,
		s.authed(models.Teacher, s.handleGroupStatistics)))
	mux.Handle("/api/statistics/group/export", s.handle("statistics.export", http.MethodGet,
		s.authed(models.Teacher, s.handleStatisticsExport)))

	mux.Handle("/api/dashboard", s.handle("dashboard", http.MethodGet,
		s.authed(models.Student, s.handleDashboard)))
	mux.Handle("/api/debts", s.handle("debts", http.MethodGet,
		s.authed(models.Student, s.handleDebts)))

	mux.Handle("/api/theory", s.handleMethods("theory", map[string]http.HandlerFunc{
		http.MethodPost: s.authed(models.Teacher, s.handleCreateTheory),
		http.MethodGet:  s.authed("", s.handleListTheory),
	}))

	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", metrics.Handler())

	return mux
}

// handle — общая обёртка ручки: CORS на всех ответах, preflight,
// единый 405 и счётчик запросов по операции.
func (s *Server) handle(op, method string, h http.HandlerFunc) http.Handler {
	return s.handleMethods(op, map[string]http.HandlerFunc{method: h})
}

func (s *Server) handleMethods(op string, methods map[string]http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h, ok := methods[r.Method]
		if !ok {
			writeErr(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		metrics.Requests.WithLabelValues(op).Inc()
		h(w, r.WithContext(ctxutil.WithOp(r.Context(), op)))
	})
}

func setCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token, Authorization")
}

// authed проверяет токен и (если требуется) роль, кладёт идентичность
// в контекст. Роль "" означает «любой аутентифицированный».
func (s *Server) authed(role models.Role, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.ParseToken(s.cfg.JWTSecret, tokenFromRequest(r))
		if err != nil {
			metrics.AuthFailures.Inc()
			switch {
			case errors.Is(err, auth.ErrNoToken):
				writeErr(w, http.StatusUnauthorized, "Токен не предоставлен")
			case errors.Is(err, auth.ErrExpired):
				writeErr(w, http.StatusUnauthorized, "Токен истек")
			default:
				writeErr(w, http.StatusUnauthorized, "Неверный токен")
			}
			return
		}
		if role != "" && claims.Role != role {
			writeErr(w, http.StatusForbidden, "Доступ запрещен")
			return
		}
		ctx := ctxutil.WithUserID(r.Context(), claims.UserID)
		ctx = ctxutil.WithRole(ctx, string(claims.Role))
		h(w, r.WithContext(ctx))
	}
}

// tokenFromRequest — X-Auth-Token (регистр заголовка не важен),
// запасной вариант — Authorization: Bearer.
func tokenFromRequest(r *http.Request) string {
	if t := r.Header.Get("X-Auth-Token"); t != "" {
		return t
	}
	if v := r.Header.Get("Authorization"); strings.HasPrefix(v, "Bearer ") {
		return strings.TrimPrefix(v, "Bearer ")
	}
	return ""
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
	defer cancel()
	t0 := time.Now()
	if err := s.db.PingContext(ctx); err != nil {
		http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	metrics.ObserveDBPing(time.Since(t0))
	_, _ = w.Write([]byte("ok"))
}

// serverError — 500 без деталей наружу; подробности в лог и sentry.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	op, _ := ctxutil.Op(r.Context())
	s.log.Errorw("handler error", "op", op, "err", err)
	observability.CaptureErr(err)
	metrics.HandlerErrors.Inc()
	writeErr(w, http.StatusInternalServerError, "Внутренняя ошибка сервера")
}

type HTTPServer struct {
	srv *http.Server
}

// Start поднимает сервер и аккуратно гасит его по отмене контекста.
func Start(ctx context.Context, addr string, handler http.Handler) *HTTPServer {
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		_ = srv.ListenAndServe() // закрываем аккуратно при Shutdown
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return &HTTPServer{srv: srv}
}
