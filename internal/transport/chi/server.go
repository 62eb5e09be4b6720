// Package chi is the HTTP transport of recserve.
package chi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/recommendation"
	"github.com/kailas-cloud/recserve/internal/logger"
	healthuc "github.com/kailas-cloud/recserve/internal/usecase/health"
	"github.com/kailas-cloud/recserve/internal/version"
)

// Recommender produces ranked lists for a model family.
type Recommender interface {
	Recommend(ctx context.Context, family domain.ModelFamily, userID, n int) ([]recommendation.Record, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Limits bounds list sizes accepted from clients.
type Limits struct {
	DefaultTopN int
	MaxTopN     int
}

// Server serves the recommendation API.
type Server struct {
	recommender   Recommender
	health        HealthChecker
	limits        Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(recommender Recommender, health HealthChecker, limits Limits, logger *zap.Logger) *Server {
	if limits.DefaultTopN <= 0 {
		limits.DefaultTopN = 10
	}
	if limits.MaxTopN < limits.DefaultTopN {
		limits.MaxTopN = limits.DefaultTopN
	}
	s := &Server{
		recommender: recommender,
		health:      health,
		limits:      limits,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnknownUser, http.StatusNotFound, ErrorResponseCodeUserNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorResponseCodeBadRequest),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, ErrorResponseCodeNotImplemented),
		sentinelHandler(domain.ErrScoring, http.StatusInternalServerError, ErrorResponseCodeScoringFailed),
		sentinelHandler(domain.ErrMetadataMissing, http.StatusInternalServerError, ErrorResponseCodeMetadataMissing),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorResponseCodeTimeout),
	}
	return s
}

// Recommend handles GET /recommend/{user_id}.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.bindUserID(w, r)
	if !ok {
		return
	}
	n, ok := s.bindCount(w, r, "top_n")
	if !ok {
		return
	}

	recs, err := s.recommend(r, domain.FamilyFactorization, userID, n)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordsToWire(recs))
}

// ValueRecommend handles GET /value_recommend/{user_id}.
// With top_k the response is a list; without it, the single best record.
func (s *Server) ValueRecommend(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.bindUserID(w, r)
	if !ok {
		return
	}

	var topK *int
	if err := runtime.BindQueryParameter("form", true, false, "top_k", r.URL.Query(), &topK); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid format for parameter top_k")
		return
	}
	if topK == nil {
		s.best(w, r, userID)
		return
	}
	if !s.validCount(w, "top_k", *topK) {
		return
	}

	recs, err := s.recommend(r, domain.FamilyValue, userID, *topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordsToWire(recs))
}

// DQNRecommend handles GET /dqn_recommend/{user_id}: the single best value-model record.
func (s *Server) DQNRecommend(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.bindUserID(w, r)
	if !ok {
		return
	}
	s.best(w, r, userID)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// best writes the top value-model record. A user with nothing left to recommend gets 204.
func (s *Server) best(w http.ResponseWriter, r *http.Request, userID int) {
	recs, err := s.recommend(r, domain.FamilyValue, userID, 1)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if len(recs) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, recordToWire(&recs[0]))
}

func (s *Server) recommend(
	r *http.Request, family domain.ModelFamily, userID, n int,
) ([]recommendation.Record, error) {
	ctx := logger.With(r.Context(), zap.String("model", string(family)), zap.Int("user_id", userID))
	recs, err := s.recommender.Recommend(ctx, family, userID, n)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}
	return recs, nil
}

func (s *Server) bindUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	var userID int
	err := runtime.BindStyledParameterWithOptions("simple", "user_id", chi.URLParam(r, "user_id"), &userID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid format for parameter user_id")
		return 0, false
	}
	return userID, true
}

// bindCount reads an optional list-size query parameter, falling back to the default.
func (s *Server) bindCount(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	var n *int
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &n); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid format for parameter "+name)
		return 0, false
	}
	if n == nil {
		return s.limits.DefaultTopN, true
	}
	if !s.validCount(w, name, *n) {
		return 0, false
	}
	return *n, true
}

func (s *Server) validCount(w http.ResponseWriter, name string, n int) bool {
	if n < 1 || n > s.limits.MaxTopN {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest,
			fmt.Sprintf("%s must be between 1 and %d", name, s.limits.MaxTopN))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message without exposing internals.
func safeDomainMessage(err error) string {
	var uue *domain.UnknownUserError
	if errors.As(err, &uue) {
		return fmt.Sprintf("User %d does not exist in the dataset", uue.UserID)
	}
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrNotImplemented,
		domain.ErrScoring,
		domain.ErrMetadataMissing,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrUnknownUser) || errors.Is(err, domain.ErrInvalidRequest) {
		s.logger.Debug("request rejected", zap.Error(err))
	} else {
		s.logger.Warn("domain error", zap.Error(err))
	}
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
