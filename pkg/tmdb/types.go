package tmdb

// SearchResponse is the first page of /search/movie.
type SearchResponse struct {
	Page    int           `json:"page"`
	Results []SearchMovie `json:"results"`
}

type SearchMovie struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	ReleaseDate   string `json:"release_date"`
}

// Credits is /movie/{id}/credits. Only the crew is used.
type Credits struct {
	ID   int          `json:"id"`
	Crew []CrewMember `json:"crew"`
}

type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Person is /person/{id} with movie_credits appended.
type Person struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Birthday     *string      `json:"birthday"`
	Gender       int          `json:"gender"`
	Homepage     *string      `json:"homepage"`
	PlaceOfBirth *string      `json:"place_of_birth"`
	MovieCredits MovieCredits `json:"movie_credits"`
}

type MovieCredits struct {
	Crew []CrewCredit `json:"crew"`
}

// CrewCredit is one movie a person worked on.
type CrewCredit struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Job         string `json:"job"`
	ReleaseDate string `json:"release_date"`
}

// MovieDetails is /movie/{id}. Revenue is 0 when TMDB does not know it.
type MovieDetails struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Revenue *int64 `json:"revenue"`
}
