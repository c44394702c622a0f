package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kfd-o/mobile-firebase-backend/internal/accounts"
	"github.com/kfd-o/mobile-firebase-backend/internal/apperr"
	"github.com/kfd-o/mobile-firebase-backend/internal/auth"
	"github.com/kfd-o/mobile-firebase-backend/internal/config"
	"github.com/kfd-o/mobile-firebase-backend/internal/metrics"
	"github.com/kfd-o/mobile-firebase-backend/internal/model"
	"github.com/kfd-o/mobile-firebase-backend/internal/visits"
)

const maxBodyBytes = 1 << 20

type VisitService interface {
	Submit(ctx context.Context, in visits.SubmitInput) (visits.SubmitResult, error)
	Approve(ctx context.Context, visitRequestID string) (visits.ApproveResult, error)
	Report(ctx context.Context, in visits.ReportInput) ([]visits.ReportRow, error)
}

type AccountService interface {
	CreateAdmin(ctx context.Context, in accounts.Input) (string, error)
	CreateHomeowner(ctx context.Context, in accounts.Input) (string, error)
	CreateSecurityPersonnel(ctx context.Context, in accounts.Input) (string, error)
	CreateUser(ctx context.Context, in accounts.Input) (string, error)
	DeleteUser(ctx context.Context, uid string) error
}

type Server struct {
	cfg         config.Config
	visits      VisitService
	accounts    AccountService
	idempotency *idempotencyStore
	logger      *zap.Logger
}

// NewServer wires the handlers. rdb may be nil, which turns off
// Idempotency-Key handling on submit.
func NewServer(cfg config.Config, visitService VisitService, accountService AccountService, rdb *redis.Client, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		visits:   visitService,
		accounts: accountService,
		logger:   logger,
	}
	if rdb != nil {
		s.idempotency = newIdempotencyStore(rdb, cfg.IdempotencyTTL, pendingWindow(cfg.UpstreamTimeout))
	}
	return s
}

// pendingWindow is how long an unfinished submit holds its Idempotency-Key.
// A submit makes up to three sequential upstream calls.
func pendingWindow(upstreamTimeout time.Duration) time.Duration {
	if upstreamTimeout <= 0 {
		return time.Minute
	}
	return 4 * upstreamTimeout
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Visit-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	staff := []model.Role{model.RoleAdmin, model.RoleSecurityPersonnel}

	r.With(s.authMiddleware, s.requireRole(staff...)).Get("/data", s.handleGetData)
	r.With(s.authMiddleware).Post("/submit-visit", s.handleSubmitVisit)
	r.With(s.authMiddleware, s.requireRole(staff...)).Post("/approve-visit", s.handleApproveVisit)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware, s.requireRole(model.RoleAdmin))
		r.Post("/create-admin", s.handleCreateAccount(s.accounts.CreateAdmin))
		r.Post("/create-homeowner", s.handleCreateAccount(s.accounts.CreateHomeowner))
		r.Post("/create-security-personnel", s.handleCreateAccount(s.accounts.CreateSecurityPersonnel))
		r.Post("/create-user", s.handleCreateAccount(s.accounts.CreateUser))
		r.Delete("/delete-user/{uid}", s.handleDeleteUser)
	})

	return r
}

// Auth

type claimsKey struct{}

// authMiddleware enforces bearer tokens only when a JWT secret is
// configured; otherwise every request passes through unauthenticated.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.JWTSecret == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func (s *Server) requireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.cfg.JWTSecret == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims := claimsFromContext(r.Context())
			if claims == nil || !hasRole(roles, claims.Role) {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasRole(roles []model.Role, role model.Role) bool {
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
		s.logger.Info("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		)
	})
}

// Visits

type submitVisitRequest struct {
	HomeownerID    string `json:"homeownerId"`
	Classification string `json:"classification"`
	VisitDate      string `json:"visitDate"`
	VisitTime      string `json:"visitTime"`
	VisitorID      string `json:"visitorId"`
}

type approveVisitRequest struct {
	VisitRequestID string `json:"visitRequestId"`
}

const (
	msgSubmitted        = "Visit submitted, notification sent, and visit request stored."
	msgSubmittedSkipped = "Visit submitted and visit request stored; notification skipped."
	msgApproved         = "Visit approved, QR code generated, and notification sent."
	msgApprovedUnsent   = "Visit approved and QR code generated; notification not delivered."
	msgAlreadyApproved  = "Visit already approved."
)

func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rows, err := s.visits.Report(r.Context(), visits.ReportInput{
		Type:      query.Get("type"),
		StartDate: query.Get("startDate"),
		EndDate:   query.Get("endDate"),
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rows})
}

func (s *Server) handleSubmitVisit(w http.ResponseWriter, r *http.Request) {
	var req submitVisitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" && s.idempotency != nil {
		subject := ""
		if claims := claimsFromContext(r.Context()); claims != nil {
			subject = claims.UserID
		}
		key = idempotencyKey(subject, key)
		fingerprint := submitFingerprint(req)
		prior, reserved, err := s.idempotency.reserve(r.Context(), key, fingerprint)
		switch {
		case err != nil:
			s.logger.Warn("idempotency reserve failed", zap.Error(err))
			key = ""
		case !reserved && prior.Fingerprint != fingerprint:
			writeError(w, http.StatusUnprocessableEntity, "idempotency_key_reused")
			return
		case !reserved && prior.pending():
			writeError(w, http.StatusConflict, "request_in_progress")
			return
		case !reserved:
			w.Header().Set("X-Visit-Request-Id", prior.VisitRequestID)
			writeSubmitted(w, prior.Notified)
			return
		}
	} else {
		key = ""
	}

	res, err := s.visits.Submit(r.Context(), visits.SubmitInput{
		HomeownerID:    req.HomeownerID,
		VisitorID:      req.VisitorID,
		Classification: req.Classification,
		VisitDate:      req.VisitDate,
		VisitTime:      req.VisitTime,
	})
	if err != nil {
		if key != "" {
			s.idempotency.release(context.WithoutCancel(r.Context()), key)
		}
		s.writeAppError(w, err)
		return
	}
	if key != "" {
		record := submitRecord{
			Fingerprint:    submitFingerprint(req),
			VisitRequestID: res.VisitRequestID,
			Notified:       res.Notified,
		}
		if err := s.idempotency.complete(context.WithoutCancel(r.Context()), key, record); err != nil {
			s.logger.Warn("idempotency complete failed; pending reservation will expire",
				zap.String("visit_request_id", res.VisitRequestID),
				zap.Error(err),
			)
		}
	}

	w.Header().Set("X-Visit-Request-Id", res.VisitRequestID)
	writeSubmitted(w, res.Notified)
}

func writeSubmitted(w http.ResponseWriter, notified bool) {
	if notified {
		writeText(w, http.StatusCreated, msgSubmitted)
		return
	}
	writeText(w, http.StatusCreated, msgSubmittedSkipped)
}

func (s *Server) handleApproveVisit(w http.ResponseWriter, r *http.Request) {
	var req approveVisitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	res, err := s.visits.Approve(r.Context(), req.VisitRequestID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	switch {
	case res.AlreadyApproved:
		writeText(w, http.StatusOK, msgAlreadyApproved)
	case res.Notified:
		writeText(w, http.StatusOK, msgApproved)
	default:
		writeText(w, http.StatusOK, msgApprovedUnsent)
	}
}

// Accounts

type createAccountResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

func (s *Server) handleCreateAccount(create func(context.Context, accounts.Input) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req accounts.Input
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		uid, err := create(r.Context(), req)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, createAccountResponse{Message: "User created successfully", UserID: uid})
	}
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	if err := s.accounts.DeleteUser(r.Context(), uid); err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User with UID: " + uid + " deleted successfully."})
}

// Helpers

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	status, code := apperr.Classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.String("code", code), zap.Error(err))
	}
	writeError(w, status, code)
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// decodeJSON tolerates unknown fields; mobile clients send extra keys.
func decodeJSON(w http.ResponseWriter, r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
