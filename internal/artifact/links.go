package artifact

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/recserve/internal/domain"
	"github.com/kailas-cloud/recserve/internal/domain/movie"
)

const (
	colMovieID = "movieId"
	colTMDbID  = "tmdbId"
)

// LoadLinks reads the external catalog table (movieId,imdbId,tmdbId).
// Rows whose tmdbId is empty or NaN are skipped; they resolve to a null id.
func LoadLinks(path string, opts Options) (*movie.Links, error) {
	data, err := readBounded(path, opts)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(data))
	header, err := r.Read()
	if err != nil {
		return nil, domain.NewLoadError(path, "header", err)
	}
	movieCol, tmdbCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case colMovieID:
			movieCol = i
		case colTMDbID:
			tmdbCol = i
		}
	}
	if movieCol < 0 || tmdbCol < 0 {
		return nil, domain.NewLoadError(path, "header",
			fmt.Errorf("columns %q and %q are required, got %v", colMovieID, colTMDbID, header))
	}

	links := make(map[int]int)
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewLoadError(path, "rows", err)
		}
		movieID, err := strconv.Atoi(strings.TrimSpace(rec[movieCol]))
		if err != nil {
			return nil, domain.NewLoadError(path, "rows", fmt.Errorf("line %d: movieId: %w", line, err))
		}
		tmdbID, ok := parseOptionalID(rec[tmdbCol])
		if !ok {
			continue
		}
		links[movieID] = tmdbID
	}
	return movie.NewLinks(links), nil
}

// parseOptionalID accepts "862" and "862.0"; empty, NaN and non-integral values are absent.
func parseOptionalID(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if id, err := strconv.Atoi(raw); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
