package recommendation

import (
	"testing"

	"github.com/kailas-cloud/recserve/internal/domain/movie"
)

func TestRecord_Accessors(t *testing.T) {
	year := 1995
	tmdb := 862
	r := New(movie.New(1, "Toy Story (1995)", &year, []string{"Animation", "Comedy"}), 0.87, 4.2, &tmdb)

	if r.ItemID() != 1 {
		t.Errorf("expected item 1, got %d", r.ItemID())
	}
	if r.Title() != "Toy Story (1995)" {
		t.Errorf("unexpected title %q", r.Title())
	}
	if r.Genres() != "Animation, Comedy" {
		t.Errorf("unexpected genres %q", r.Genres())
	}
	if y, ok := r.Year(); !ok || y != 1995 {
		t.Errorf("unexpected year %d (ok=%v)", y, ok)
	}
	if r.OriginalScore() != 0.87 || r.Score() != 4.2 {
		t.Errorf("unexpected scores %v / %v", r.OriginalScore(), r.Score())
	}
	if id, ok := r.TMDbID(); !ok || id != 862 {
		t.Errorf("unexpected tmdb id %d (ok=%v)", id, ok)
	}
}

func TestRecord_NullableFields(t *testing.T) {
	r := New(movie.New(2, "Unknown Film", nil, nil), 0, 3, nil)

	if _, ok := r.Year(); ok {
		t.Error("expected unknown year")
	}
	if _, ok := r.TMDbID(); ok {
		t.Error("expected missing tmdb id")
	}
}
