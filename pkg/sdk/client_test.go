package recserve

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/movie"
	"github.com/kailas-cloud/recserve/internal/domain/recommendation"
)

// --- Mocks ---

type mockRecommender struct {
	recs       []recommendation.Record
	err        error
	lastFamily domain.ModelFamily
	lastN      int
}

func (m *mockRecommender) Recommend(
	_ context.Context, family domain.ModelFamily, _, n int,
) ([]recommendation.Record, error) {
	m.lastFamily = family
	m.lastN = n
	if m.err != nil {
		return nil, m.err
	}
	if n < len(m.recs) {
		return m.recs[:n], nil
	}
	return m.recs, nil
}

func (m *mockRecommender) Families() []domain.ModelFamily {
	return []domain.ModelFamily{domain.FamilyFactorization, domain.FamilyValue}
}

func sampleRecords() []recommendation.Record {
	y := 1995
	tmdb := 949
	return []recommendation.Record{
		recommendation.New(movie.New(6, "Heat", &y, []string{"Action", "Crime"}), 2.5, 5, &tmdb),
		recommendation.New(movie.New(12, "Dracula", nil, nil), 0.5, 1, nil),
	}
}

func newTestClient(rec *mockRecommender) *Client {
	obs, _ := newObserver(nil, nil)
	return &Client{recSvc: rec, obs: obs}
}

// --- Tests ---

func TestNew_NoLinks(t *testing.T) {
	_, err := New(WithFactorization("model.json"))
	if err == nil {
		t.Fatal("expected error when no links table provided")
	}
}

func TestNew_NoModel(t *testing.T) {
	_, err := New(WithLinks("links.csv"))
	if err == nil {
		t.Fatal("expected error when no model configured")
	}
}

func TestNew_MissingArtifact(t *testing.T) {
	links := filepath.Join(t.TempDir(), "links.csv")
	if err := os.WriteFile(links, []byte("movieId,imdbId,tmdbId\n1,1,862\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := New(WithLinks(links), WithFactorization(filepath.Join(t.TempDir(), "missing.json")))
	if !errors.Is(err, ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", err)
	}
}

func TestNew_LoadsFactorization(t *testing.T) {
	dir := t.TempDir()
	links := filepath.Join(dir, "links.csv")
	model := filepath.Join(dir, "model.json")
	if err := os.WriteFile(links, []byte("movieId,imdbId,tmdbId\n9,1,9091\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	bundle := `{
  "user_ids": [1], "item_ids": [5, 9, 12],
  "user_embeddings": [[1]], "user_biases": [0],
  "item_feature_embeddings": [[0.1], [0.9], [0.5]], "item_feature_biases": [0, 0, 0],
  "item_features": {"rows": 3, "cols": 3, "entries": [
    {"row": 0, "col": 0, "value": 1}, {"row": 1, "col": 1, "value": 1}, {"row": 2, "col": 2, "value": 1}
  ]},
  "movies": [
    {"item_id": 5, "title": "A", "year": 1999, "genres": "Drama"},
    {"item_id": 9, "title": "B", "year": null, "genres": "Comedy"},
    {"item_id": 12, "title": "C", "year": 2001, "genres": "Action"}
  ],
  "ratings": [{"user_id": 1, "item_id": 5, "rating": 4}]
}`
	if err := os.WriteFile(model, []byte(bundle), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := New(WithLinks(links), WithFactorization(model))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !reflect.DeepEqual(c.Models(), []string{"factorization"}) {
		t.Errorf("unexpected models %v", c.Models())
	}

	recs, err := c.Recommend(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(recs) != 2 || recs[0].ItemID != 9 || recs[1].ItemID != 12 {
		t.Fatalf("unexpected recommendations %+v", recs)
	}
	if recs[0].TMDbID == nil || *recs[0].TMDbID != 9091 || recs[0].Year != nil {
		t.Errorf("unexpected first record %+v", recs[0])
	}
	if recs[0].Score != 5 || recs[1].Score != 1 {
		t.Errorf("expected normalized scores 5 and 1, got %v and %v", recs[0].Score, recs[1].Score)
	}

	if _, err := c.Recommend(context.Background(), 404, 10); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("expected ErrUnknownUser, got %v", err)
	}
	if _, err := c.ValueRecommend(context.Background(), 1, 10); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
	if h := c.Health(context.Background()); h.Status != "ok" || h.Checks["model:value"] != "disabled" {
		t.Errorf("unexpected health %+v", h)
	}
}

func TestClient_Recommend(t *testing.T) {
	rec := &mockRecommender{recs: sampleRecords()}
	c := newTestClient(rec)

	recs, err := c.Recommend(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.lastFamily != domain.FamilyFactorization {
		t.Errorf("expected factorization family, got %q", rec.lastFamily)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	first := recs[0]
	if first.ItemID != 6 || first.Title != "Heat" || *first.Year != 1995 || *first.TMDbID != 949 {
		t.Errorf("unexpected first record %+v", first)
	}
	if !reflect.DeepEqual(first.Genres, []string{"Action", "Crime"}) {
		t.Errorf("unexpected genres %v", first.Genres)
	}
	if recs[1].Year != nil || recs[1].TMDbID != nil {
		t.Errorf("expected nil year and tmdb id, got %+v", recs[1])
	}
}

func TestClient_ValueRecommend(t *testing.T) {
	rec := &mockRecommender{recs: sampleRecords()}
	c := newTestClient(rec)

	if _, err := c.ValueRecommend(context.Background(), 1, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.lastFamily != domain.FamilyValue || rec.lastN != 5 {
		t.Errorf("expected value family with n=5, got %q n=%d", rec.lastFamily, rec.lastN)
	}
}

func TestClient_Best(t *testing.T) {
	rec := &mockRecommender{recs: sampleRecords()}
	c := newTestClient(rec)

	best, ok, err := c.Best(context.Background(), 1)
	if err != nil || !ok {
		t.Fatalf("Best() = %v, %v", ok, err)
	}
	if best.ItemID != 6 || rec.lastN != 1 {
		t.Errorf("expected item 6 with n=1, got %d n=%d", best.ItemID, rec.lastN)
	}

	rec.recs = nil
	if _, ok, err := c.Best(context.Background(), 1); ok || err != nil {
		t.Errorf("expected no best item without error, got ok=%v err=%v", ok, err)
	}
}

func TestClient_ErrorsWrapSentinels(t *testing.T) {
	rec := &mockRecommender{err: domain.NewUnknownUser(404)}
	c := newTestClient(rec)

	_, err := c.Recommend(context.Background(), 404, 10)
	if !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser, got %v", err)
	}
	if _, _, err := c.Best(context.Background(), 404); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected ErrUnknownUser from Best, got %v", err)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithLinks("links.csv").apply(cfg)
	WithFactorization("model.json").apply(cfg)
	WithValue("weights.json", "data.json").apply(cfg)
	WithMaxArtifactBytes(1024).apply(cfg)
	WithWorkers(4, 64).apply(cfg)

	if cfg.linksPath != "links.csv" || cfg.factorizationPath != "model.json" {
		t.Errorf("unexpected paths %q %q", cfg.linksPath, cfg.factorizationPath)
	}
	if cfg.valueWeightsPath != "weights.json" || cfg.valueDataPath != "data.json" {
		t.Errorf("unexpected value paths %q %q", cfg.valueWeightsPath, cfg.valueDataPath)
	}
	if cfg.maxBytes != 1024 || cfg.workers != 4 || cfg.chunkSize != 64 {
		t.Errorf("unexpected limits %d %d %d", cfg.maxBytes, cfg.workers, cfg.chunkSize)
	}

	logger := slog.Default()
	WithLogger(logger).apply(cfg)
	if cfg.logger != logger {
		t.Error("expected logger to be set")
	}

	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg)
	if cfg.metricsReg != reg {
		t.Error("expected metricsReg to be set")
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), nil)
	obs.observe("test", time.Now(), errors.New("err"))
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("recommend", time.Now().Add(-10*time.Millisecond), nil)
	obs.observe("recommend", time.Now(), errors.New("fail"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "recserve_sdk_operations_total" {
			found = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric samples, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("recserve_sdk_operations_total not found")
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("first newObserver: %v", err)
	}
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("second newObserver must reuse collectors: %v", err)
	}
}

func TestObserver_WithLogger(t *testing.T) {
	obs, err := newObserver(slog.Default(), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("test.op", time.Now(), nil)
	obs.observe("test.op", time.Now(), errors.New("test error"))
}
