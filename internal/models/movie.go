package models

// Movie is one row of the cleaned CMU movie table, enriched in place by the
// TMDB stages. A zero TMDBID means the title was not resolved.
type Movie struct {
	WikiID     int      `json:"wiki_movie_id"`
	FreebaseID string   `json:"freebase_movie_id"`
	Name       string   `json:"name"`
	Year       int      `json:"release_date"`
	Revenue    *int64   `json:"box_office_revenue,omitempty"`
	Countries  []string `json:"countries"`
	Genres     []string `json:"genres"`

	TMDBID      int        `json:"tmdb_id,omitempty"`
	TMDBTitle   string     `json:"tmdb_title,omitempty"`
	TMDBRevenue *int64     `json:"tmdb_revenue,omitempty"`
	Composers   []Composer `json:"composers,omitempty"`
}

// HasRevenue reports whether a box-office figure is known.
func (m Movie) HasRevenue() bool { return m.Revenue != nil }

// RevenueValue returns the box-office figure, or -1 when unknown so that
// unknown revenue sorts below every real one.
func (m Movie) RevenueValue() int64 {
	if m.Revenue == nil {
		return -1
	}
	return *m.Revenue
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }
