package chi

import (
	"strconv"

	"github.com/kailas-cloud/recserve/internal/domain/movie"
	"github.com/kailas-cloud/recserve/internal/domain/recommendation"
)

// ErrorResponseCode is the machine-readable error code of an API error.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest      ErrorResponseCode = "bad_request"
	ErrorResponseCodeUserNotFound    ErrorResponseCode = "user_not_found"
	ErrorResponseCodeNotImplemented  ErrorResponseCode = "not_implemented"
	ErrorResponseCodeScoringFailed   ErrorResponseCode = "scoring_failed"
	ErrorResponseCodeMetadataMissing ErrorResponseCode = "metadata_missing"
	ErrorResponseCodeTimeout         ErrorResponseCode = "timeout"
	ErrorResponseCodeInternalError   ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// Year is a release year that renders as "Unknown" when missing.
type Year struct {
	value int
	known bool
}

// MarshalJSON renders the year as a number or the string "Unknown".
func (y Year) MarshalJSON() ([]byte, error) {
	if !y.known {
		return []byte(strconv.Quote(movie.UnknownYear)), nil
	}
	return strconv.AppendInt(nil, int64(y.value), 10), nil
}

// Record is the wire representation of a recommendation.
type Record struct {
	ItemID        int     `json:"item_id"`
	Title         string  `json:"title"`
	Genres        string  `json:"genres"`
	Year          Year    `json:"year"`
	OriginalScore float64 `json:"original_score"`
	Score         float64 `json:"score"`
	TMDbID        *int    `json:"tmdbId"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

func recordToWire(r *recommendation.Record) Record {
	out := Record{
		ItemID:        r.ItemID(),
		Title:         r.Title(),
		Genres:        r.Genres(),
		OriginalScore: r.OriginalScore(),
		Score:         r.Score(),
	}
	if y, ok := r.Year(); ok {
		out.Year = Year{value: y, known: true}
	}
	if id, ok := r.TMDbID(); ok {
		out.TMDbID = &id
	}
	return out
}

func recordsToWire(recs []recommendation.Record) []Record {
	out := make([]Record, len(recs))
	for i := range recs {
		out[i] = recordToWire(&recs[i])
	}
	return out
}
