package recommendation

import "github.com/kailas-cloud/recserve/internal/domain/movie"

// Record is one recommended item joined with its metadata. Created per request.
type Record struct {
	movie         movie.Movie
	originalScore float64
	score         float64
	tmdbID        int
	hasTMDb       bool
}

// New creates a Record. tmdbID is nil when the external catalog has no usable row.
func New(m movie.Movie, originalScore, score float64, tmdbID *int) Record {
	r := Record{movie: m, originalScore: originalScore, score: score}
	if tmdbID != nil {
		r.tmdbID = *tmdbID
		r.hasTMDb = true
	}
	return r
}

// Movie returns the joined metadata row.
func (r *Record) Movie() movie.Movie { return r.movie }

// ItemID returns the recommended item id.
func (r *Record) ItemID() int { return r.movie.ID() }

// Title returns the movie title.
func (r *Record) Title() string { return r.movie.Title() }

// Genres returns the comma-joined genre list.
func (r *Record) Genres() string { return r.movie.GenresText() }

// Year returns the release year; ok is false when unknown.
func (r *Record) Year() (int, bool) { return r.movie.Year() }

// OriginalScore returns the raw model score.
func (r *Record) OriginalScore() float64 { return r.originalScore }

// Score returns the score rescaled onto the presentation range.
func (r *Record) Score() float64 { return r.score }

// TMDbID returns the external catalog id; ok is false when unavailable.
func (r *Record) TMDbID() (int, bool) { return r.tmdbID, r.hasTMDb }
