package movie

import (
	"fmt"
	"strings"
)

// UnknownYear is the presentation value for a missing release year.
const UnknownYear = "Unknown"

// Movie is an item of the catalog (immutable value object).
type Movie struct {
	id      int
	title   string
	year    int
	hasYear bool
	genres  []string
}

// New creates a Movie. year is nil when the source row has no release year.
func New(id int, title string, year *int, genres []string) Movie {
	m := Movie{id: id, title: title, genres: append([]string(nil), genres...)}
	if year != nil {
		m.year = *year
		m.hasYear = true
	}
	return m
}

// ParseGenres splits a pipe-delimited genre field ("Action|Comedy").
func ParseGenres(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ID returns the item identifier.
func (m *Movie) ID() int { return m.id }

// Title returns the movie title.
func (m *Movie) Title() string { return m.title }

// Year returns the release year; ok is false when it is unknown.
func (m *Movie) Year() (year int, ok bool) { return m.year, m.hasYear }

// Genres returns the genre list in source order.
func (m *Movie) Genres() []string { return m.genres }

// GenresText joins genres the way clients display them.
func (m *Movie) GenresText() string { return strings.Join(m.genres, ", ") }

// Catalog is the item metadata table, keyed by item id. Immutable after construction.
type Catalog struct {
	byID  map[int]Movie
	order []int
}

// NewCatalog indexes movies by id. Duplicate ids are rejected.
func NewCatalog(movies []Movie) (*Catalog, error) {
	c := &Catalog{
		byID:  make(map[int]Movie, len(movies)),
		order: make([]int, 0, len(movies)),
	}
	for _, m := range movies {
		if _, dup := c.byID[m.id]; dup {
			return nil, fmt.Errorf("duplicate movie id %d", m.id)
		}
		c.byID[m.id] = m
		c.order = append(c.order, m.id)
	}
	return c, nil
}

// Get returns the metadata row for id.
func (c *Catalog) Get(id int) (Movie, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// IDs returns item ids in load order.
func (c *Catalog) IDs() []int { return c.order }

// Len returns the number of movies.
func (c *Catalog) Len() int { return len(c.order) }
