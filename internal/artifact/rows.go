package artifact

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/recserve/internal/domain/movie"
)

// movieRow is one metadata row shared by every bundle type.
type movieRow struct {
	ItemID *int       `json:"item_id"`
	Title  string     `json:"title"`
	Year   *float64   `json:"year"`
	Genres genreField `json:"genres"`
}

// genreField accepts a pipe-delimited string or a JSON array of names.
type genreField []string

func (g *genreField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*g = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return err
		}
		*g = names
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("genres must be a string or an array: %w", err)
	}
	*g = movie.ParseGenres(raw)
	return nil
}

// categorical accepts a JSON number or string and keeps its textual form.
// Integral numbers are rendered without a fractional part ("4", not "4.0").
type categorical struct {
	value string
	set   bool
}

func (c *categorical) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = categorical{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = categorical{value: s, set: s != ""}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("categorical value must be a number or a string: %w", err)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		*c = categorical{value: strconv.FormatInt(int64(f), 10), set: true}
		return nil
	}
	*c = categorical{value: strconv.FormatFloat(f, 'g', -1, 64), set: true}
	return nil
}

func buildCatalog(rows []movieRow) (*movie.Catalog, error) {
	movies := make([]movie.Movie, 0, len(rows))
	for i, r := range rows {
		if r.ItemID == nil {
			return nil, fmt.Errorf("movie row %d has no item_id", i)
		}
		var year *int
		if r.Year != nil && !math.IsNaN(*r.Year) {
			y := int(*r.Year)
			year = &y
		}
		movies = append(movies, movie.New(*r.ItemID, r.Title, year, r.Genres))
	}
	return movie.NewCatalog(movies)
}
