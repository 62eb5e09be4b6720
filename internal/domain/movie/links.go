package movie

// Links maps internal movie ids to external catalog (TMDb) ids.
// Rows with a missing or NaN external id are simply absent.
type Links struct {
	tmdb map[int]int
}

// NewLinks creates a link table from movieId -> tmdbId pairs.
func NewLinks(tmdb map[int]int) *Links {
	m := make(map[int]int, len(tmdb))
	for k, v := range tmdb {
		m[k] = v
	}
	return &Links{tmdb: m}
}

// TMDbID returns the external id for movieID. A nil table has no rows.
func (l *Links) TMDbID(movieID int) (int, bool) {
	if l == nil {
		return 0, false
	}
	id, ok := l.tmdb[movieID]
	return id, ok
}

// Len returns the number of linked movies.
func (l *Links) Len() int {
	if l == nil {
		return 0
	}
	return len(l.tmdb)
}
