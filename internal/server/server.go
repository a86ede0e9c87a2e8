// Package server exposes the authenticated REST API over the traffic table.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cedar-analytics/traffic-cli/internal/auth"
	"github.com/cedar-analytics/traffic-cli/internal/config"
	"github.com/cedar-analytics/traffic-cli/internal/model"
	"github.com/cedar-analytics/traffic-cli/internal/store"
)

type ctxKey int

const principalKey ctxKey = iota

// Server wires the auth service and store into HTTP handlers.
type Server struct {
	auth         *auth.Service
	store        store.Store
	cfg          config.ServerConfig
	loginLimiter *rate.Limiter
	audit        *zap.Logger
}

// New creates a Server. The login limiter is a process-wide token bucket
// throttling brute-force attempts.
func New(authSvc *auth.Service, st store.Store, cfg config.ServerConfig) *Server {
	rps := cfg.LoginRPS
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.LoginBurst
	if burst <= 0 {
		burst = 5
	}
	return &Server{
		auth:         authSvc,
		store:        st,
		cfg:          cfg,
		loginLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		audit:        zap.L().Named("audit"),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/api/data", s.handleData)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireAuth verifies the bearer token and attaches the principal to the
// request context. All failures collapse to a uniform 401.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		principal, err := s.auth.Authenticate(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, *principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// principalFrom returns the authenticated principal, if any.
func principalFrom(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey).(model.Principal)
	return p, ok
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	if !s.loginLimiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Too many login attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	token, err := s.auth.Login(r.Context(), s.store, req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.audit.Info("login_failed",
			zap.String("request_id", requestID),
			zap.String("username", req.Username),
		)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		zap.L().Error("login failed unexpectedly", zap.String("request_id", requestID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	s.audit.Info("login_success",
		zap.String("request_id", requestID),
		zap.String("username", req.Username),
	)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	limit := s.parseLimit(r.URL.Query().Get("limit"))

	records, err := s.store.ListTraffic(r.Context(), limit)
	if err != nil {
		zap.L().Error("list traffic failed", zap.String("request_id", requestID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch data")
		return
	}
	if records == nil {
		records = []model.TrafficRecord{}
	}

	actor := "unknown"
	if p, ok := principalFrom(r.Context()); ok {
		actor = p.Username
	}
	s.audit.Info("fetch_data",
		zap.String("request_id", requestID),
		zap.String("actor", actor),
		zap.Int("limit", limit),
	)

	writeJSON(w, http.StatusOK, records)
}

// parseLimit clamps the limit query parameter to [1, max], defaulting when
// absent, non-numeric, or non-positive.
func (s *Server) parseLimit(raw string) int {
	def := s.cfg.DefaultLimit
	if def <= 0 {
		def = 100
	}
	max := s.cfg.MaxLimit
	if max <= 0 {
		max = 10000
	}

	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
