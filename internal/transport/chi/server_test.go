package chi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/movie"
	"github.com/kailas-cloud/recserve/internal/domain/recommendation"
	healthuc "github.com/kailas-cloud/recserve/internal/usecase/health"
)

// --- Mocks ---

type recommendCall struct {
	family domain.ModelFamily
	userID int
	n      int
}

type mockRecommender struct {
	records []recommendation.Record
	err     error
	calls   []recommendCall
	panic   bool
}

func (m *mockRecommender) Recommend(
	_ context.Context, family domain.ModelFamily, userID, n int,
) ([]recommendation.Record, error) {
	if m.panic {
		panic("boom")
	}
	m.calls = append(m.calls, recommendCall{family: family, userID: userID, n: n})
	if m.err != nil {
		return nil, m.err
	}
	if n < len(m.records) {
		return m.records[:n], nil
	}
	return m.records, nil
}

func (m *mockRecommender) lastCall(t *testing.T) recommendCall {
	t.Helper()
	if len(m.calls) == 0 {
		t.Fatal("recommender was not called")
	}
	return m.calls[len(m.calls)-1]
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Helpers ---

func testRecords() []recommendation.Record {
	year := 1995
	tmdb := 862
	return []recommendation.Record{
		recommendation.New(movie.New(1, "Toy Story", &year, []string{"Animation", "Comedy"}), 4.2, 5.0, &tmdb),
		recommendation.New(movie.New(2, "Jumanji", nil, []string{"Adventure"}), 1.1, 1.0, nil),
	}
}

func newTestRouter(rec *mockRecommender, health *mockHealth) http.Handler {
	if health == nil {
		health = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy}}
	}
	s := NewServer(rec, health, Limits{DefaultTopN: 10, MaxTopN: 100}, zap.NewNop())
	return NewRouter(s, RouterConfig{AllowedOrigins: []string{"http://localhost:3000"}}, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp
}

// --- Tests ---

func TestRecommend_DefaultTopN(t *testing.T) {
	rec := &mockRecommender{records: testRecords()}
	w := do(t, newTestRouter(rec, nil), http.MethodGet, "/recommend/7")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	call := rec.lastCall(t)
	if call.family != domain.FamilyFactorization || call.userID != 7 || call.n != 10 {
		t.Errorf("unexpected call %+v", call)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRecommend_RecordShape(t *testing.T) {
	rec := &mockRecommender{records: testRecords()}
	w := do(t, newTestRouter(rec, nil), http.MethodGet, "/recommend/7?top_n=2")

	var body []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("expected 2 records, got %d", len(body))
	}

	first := body[0]
	if first["item_id"] != float64(1) || first["title"] != "Toy Story" || first["genres"] != "Animation, Comedy" {
		t.Errorf("unexpected first record %v", first)
	}
	if first["year"] != float64(1995) || first["tmdbId"] != float64(862) {
		t.Errorf("unexpected year/tmdbId %v %v", first["year"], first["tmdbId"])
	}
	if first["original_score"] != 4.2 || first["score"] != 5.0 {
		t.Errorf("unexpected scores %v %v", first["original_score"], first["score"])
	}

	second := body[1]
	if second["year"] != "Unknown" {
		t.Errorf("expected year Unknown, got %v", second["year"])
	}
	tmdb, present := second["tmdbId"]
	if !present || tmdb != nil {
		t.Errorf("expected tmdbId null, got %v (present=%v)", tmdb, present)
	}
}

func TestRecommend_EmptyListIsArray(t *testing.T) {
	rec := &mockRecommender{records: []recommendation.Record{}}
	w := do(t, newTestRouter(rec, nil), http.MethodGet, "/recommend/7")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("expected empty array, got %q", got)
	}
}

func TestRecommend_BadParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"non-numeric user", "/recommend/abc"},
		{"non-numeric top_n", "/recommend/1?top_n=ten"},
		{"zero top_n", "/recommend/1?top_n=0"},
		{"negative top_n", "/recommend/1?top_n=-3"},
		{"top_n over max", "/recommend/1?top_n=101"},
		{"non-numeric top_k", "/value_recommend/1?top_k=x"},
		{"zero top_k", "/value_recommend/1?top_k=0"},
		{"non-numeric dqn user", "/dqn_recommend/1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mockRecommender{records: testRecords()}
			w := do(t, newTestRouter(rec, nil), http.MethodGet, tt.target)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if resp := decodeError(t, w); resp.Code != ErrorResponseCodeBadRequest {
				t.Errorf("expected code bad_request, got %q", resp.Code)
			}
			if len(rec.calls) != 0 {
				t.Error("recommender must not be called for invalid params")
			}
		})
	}
}

func TestRecommend_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody ErrorResponseCode
	}{
		{"unknown user", domain.NewUnknownUser(99), http.StatusNotFound, ErrorResponseCodeUserNotFound},
		{"invalid request", fmt.Errorf("%w: bad n", domain.ErrInvalidRequest), http.StatusBadRequest, ErrorResponseCodeBadRequest},
		{"not implemented", fmt.Errorf("%w: model", domain.ErrNotImplemented), http.StatusNotImplemented, ErrorResponseCodeNotImplemented},
		{"scoring", domain.NewScoringError(1, 5, errors.New("nan")), http.StatusInternalServerError, ErrorResponseCodeScoringFailed},
		{"metadata", domain.NewMetadataMissing(5), http.StatusInternalServerError, ErrorResponseCodeMetadataMissing},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorResponseCodeTimeout},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, ErrorResponseCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &mockRecommender{err: tt.err}
			w := do(t, newTestRouter(rec, nil), http.MethodGet, "/recommend/99")

			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}
			resp := decodeError(t, w)
			if resp.Code != tt.wantBody {
				t.Errorf("expected code %q, got %q", tt.wantBody, resp.Code)
			}
			if strings.Contains(resp.Message, "nan") || strings.Contains(resp.Message, "disk") {
				t.Errorf("internal detail leaked: %q", resp.Message)
			}
		})
	}
}

func TestRecommend_UnknownUserMessage(t *testing.T) {
	rec := &mockRecommender{err: domain.NewUnknownUser(99)}
	w := do(t, newTestRouter(rec, nil), http.MethodGet, "/recommend/99")

	resp := decodeError(t, w)
	if resp.Message != "User 99 does not exist in the dataset" {
		t.Errorf("unexpected message %q", resp.Message)
	}
}

func TestValueRecommend_TopKReturnsList(t *testing.T) {
	rec := &mockRecommender{records: testRecords()}
	w := do(t, newTestRouter(rec, nil), http.MethodGet, "/value_recommend/3?top_k=2")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	call := rec.lastCall(t)
	if call.family != domain.FamilyValue || call.userID != 3 || call.n != 2 {
		t.Errorf("unexpected call %+v", call)
	}
	var body []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected a JSON array: %v", err)
	}
}

func TestValueRecommend_NoTopKReturnsBest(t *testing.T) {
	rec := &mockRecommender{records: testRecords()}
	w := do(t, newTestRouter(rec, nil), http.MethodGet, "/value_recommend/3")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if call := rec.lastCall(t); call.n != 1 || call.family != domain.FamilyValue {
		t.Errorf("unexpected call %+v", call)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected a JSON object: %v", err)
	}
	if body["item_id"] != float64(1) {
		t.Errorf("expected best item 1, got %v", body["item_id"])
	}
}

func TestValueRecommend_NothingLeft(t *testing.T) {
	rec := &mockRecommender{records: []recommendation.Record{}}
	w := do(t, newTestRouter(rec, nil), http.MethodGet, "/value_recommend/3")

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestDQNRecommend(t *testing.T) {
	rec := &mockRecommender{records: testRecords()}
	w := do(t, newTestRouter(rec, nil), http.MethodGet, "/dqn_recommend/4")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if call := rec.lastCall(t); call.family != domain.FamilyValue || call.userID != 4 || call.n != 1 {
		t.Errorf("unexpected call %+v", call)
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		status   healthuc.Status
		wantCode int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			health := &mockHealth{report: healthuc.Report{
				Status: tt.status,
				Checks: map[string]healthuc.CheckResult{"model:value": healthuc.CheckOK},
			}}
			w := do(t, newTestRouter(&mockRecommender{}, health), http.MethodGet, "/health")

			if w.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, w.Code)
			}
			var body HealthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != string(tt.status) || body.Checks["model:value"] != "ok" {
				t.Errorf("unexpected body %+v", body)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	w := do(t, newTestRouter(&mockRecommender{}, nil), http.MethodGet, "/metrics")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "recserve_http_requests_in_flight") {
		t.Error("expected recserve metrics in scrape output")
	}
}

func TestPanicRecovered(t *testing.T) {
	w := do(t, newTestRouter(&mockRecommender{panic: true}, nil), http.MethodGet, "/recommend/1")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if resp := decodeError(t, w); resp.Code != ErrorResponseCodeInternalError {
		t.Errorf("expected internal_error, got %q", resp.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	w := do(t, newTestRouter(&mockRecommender{}, nil), http.MethodGet, "/nope")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/recommend/1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	newTestRouter(&mockRecommender{}, nil).ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected allowed origin, got %q", got)
	}
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	newTestRouter(&mockRecommender{}, nil).ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for unknown origin, got %q", got)
	}
}
