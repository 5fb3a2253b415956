package match

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRatio(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "movie", "movie", 100},
		{"both empty", "", "", 100},
		{"one empty", "abc", "", 0},
		{"one substitution of four", "abcd", "abce", 75},
		{"unicode counted by rune", "amélie", "amelie", 100 * (1 - 2.0/12)},
		{"insertion", "john williams", "john williams jr", 100 * (1 - 3.0/29)},
		{"deletion", "williams", "william", 100 * (1 - 1.0/15)},
		{"disjoint", "abc", "xyz", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.want, Ratio(tc.a, tc.b), 1e-9)
		})
	}
}

func TestMatcher_Best(t *testing.T) {
	m := NewMatcher(DefaultKeywords())

	tests := []struct {
		name    string
		albums  []Album
		target  Target
		want    int
		wantHit bool
	}{
		{
			name: "soundtrack vocabulary beats live recording",
			albums: []Album{
				{Name: "Movie (Original Motion Picture Soundtrack)", ReleaseDate: "2001-05-01", Artists: []string{"A"}},
				{Name: "Movie Live", ReleaseDate: "2001", Artists: []string{"A"}},
			},
			target:  Target{Name: "Movie", Year: 2001, Artist: "A"},
			want:    0,
			wantHit: true,
		},
		{
			name: "longest target word must survive stripping",
			albums: []Album{
				{Name: "Gladiolus", ReleaseDate: "2000", Artists: []string{"Hans Zimmer"}},
				{Name: "Music from Gladiator", ReleaseDate: "2000", Artists: []string{"Hans Zimmer"}},
			},
			target:  Target{Name: "Gladiator", Year: 2000, Artist: "Hans Zimmer"},
			want:    1,
			wantHit: true,
		},
		{
			name: "artist filter with various artists sentinel",
			albums: []Album{
				{Name: "Heat", ReleaseDate: "1995", Artists: []string{"Somebody Else"}},
				{Name: "Heat Soundtrack", ReleaseDate: "1995", Artists: []string{"Various Artists"}},
			},
			target:  Target{Name: "Heat", Year: 1995, Artist: "Elliot Goldenthal"},
			want:    1,
			wantHit: true,
		},
		{
			name: "artist compared case-insensitively",
			albums: []Album{
				{Name: "Up", ReleaseDate: "2009", Artists: []string{"MICHAEL GIACCHINO"}},
			},
			target:  Target{Name: "Up", Year: 2009, Artist: "Michael Giacchino"},
			want:    0,
			wantHit: true,
		},
		{
			name: "artist with a suffix passes the threshold",
			albums: []Album{
				{Name: "Jaws", ReleaseDate: "1975", Artists: []string{"John Williams Jr"}},
			},
			target:  Target{Name: "Jaws", Year: 1975, Artist: "John Williams"},
			want:    0,
			wantHit: true,
		},
		{
			name: "year drift of one tolerated, two rejected",
			albums: []Album{
				{Name: "Alien", ReleaseDate: "1981-01-01"},
				{Name: "Alien", ReleaseDate: "1978-06-01"},
			},
			target:  Target{Name: "Alien", Year: 1979},
			want:    1,
			wantHit: true,
		},
		{
			name: "no survivors",
			albums: []Album{
				{Name: "Something Else", ReleaseDate: "1990"},
			},
			target: Target{Name: "Jaws", Year: 1975},
		},
		{
			name: "ties go to first occurrence",
			albums: []Album{
				{Name: "Jaws", ReleaseDate: "1975"},
				{Name: "Jaws", ReleaseDate: "1975"},
			},
			target:  Target{Name: "Jaws", Year: 1975},
			want:    0,
			wantHit: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Best(tt.albums, tt.target)
			require.Equal(t, tt.wantHit, ok)
			if ok {
				require.Equal(t, tt.want, got.Index)
			}
		})
	}
}

func TestMatcher_ScoreFormula(t *testing.T) {
	m := NewMatcher(DefaultKeywords())
	scores := m.Score([]Album{
		{Name: "Movie (Original Motion Picture Soundtrack)"},
		{Name: "Movie Live"},
		{Name: "The Movie"},
	}, Target{Name: "Movie"})

	require.Len(t, scores, 3)
	// original, motion, picture, soundtrack
	require.InDelta(t, 100*1.1*1.1*1.1*1.1, scores[0].Score, 1e-9)
	require.InDelta(t, 100*0.9, scores[1].Score, 1e-9)
	// neutral words are stripped but neither boost nor penalise
	require.InDelta(t, 100, scores[2].Score, 1e-9)
}

func TestMatcher_GateBeatsRawSimilarity(t *testing.T) {
	m := NewMatcher(DefaultKeywords())
	// "Scar Wars" is more similar to the target than the long soundtrack title
	// but lacks the longest word of the target.
	got, ok := m.Best([]Album{
		{Name: "Scar Wars"},
		{Name: "Star Wars Episode IV: A New Hope (Original Soundtrack)"},
	}, Target{Name: "Star Wars"})
	require.True(t, ok)
	require.Equal(t, 1, got.Index)

	scores := m.Score([]Album{{Name: "Scar Wars"}}, Target{Name: "Star Wars Trilogy"})
	require.Empty(t, scores)
}

func TestMatcher_TargetParenthesesKept(t *testing.T) {
	m := NewMatcher(DefaultKeywords())
	scores := m.Score([]Album{{Name: "(500) Days of Summer"}}, Target{Name: "(500) Days of Summer"})
	require.Len(t, scores, 1)
	require.InDelta(t, 100, scores[0].Score, 1e-9)
}

func TestBestMovie(t *testing.T) {
	tests := []struct {
		name   string
		cands  []MovieCandidate
		title  string
		year   int
		wantID int
		wantOK bool
	}{
		{
			name: "unique best title",
			cands: []MovieCandidate{
				{ID: 1, Title: "Alien", OriginalTitle: "Alien", ReleaseDate: "1979-05-25"},
				{ID: 2, Title: "Aliens", OriginalTitle: "Aliens", ReleaseDate: "1986-07-18"},
			},
			title: "Aliens", year: 1986, wantID: 2, wantOK: true,
		},
		{
			name: "original title matches",
			cands: []MovieCandidate{
				{ID: 7, Title: "Spirited Away", OriginalTitle: "Sen to Chihiro no Kamikakushi", ReleaseDate: "2001-07-20"},
				{ID: 8, Title: "Chihiro", OriginalTitle: "Chihiro", ReleaseDate: "1999-01-01"},
			},
			title: "Sen to Chihiro no Kamikakushi", year: 2001, wantID: 7, wantOK: true,
		},
		{
			name: "tie broken by year",
			cands: []MovieCandidate{
				{ID: 10, Title: "Halloween", OriginalTitle: "Halloween", ReleaseDate: "2018-10-19"},
				{ID: 11, Title: "Halloween", OriginalTitle: "Halloween", ReleaseDate: "1978-10-25"},
			},
			title: "Halloween", year: 1978, wantID: 11, wantOK: true,
		},
		{
			name: "tie without matching year is not found",
			cands: []MovieCandidate{
				{ID: 10, Title: "Halloween", OriginalTitle: "Halloween", ReleaseDate: "2018-10-19"},
				{ID: 11, Title: "Halloween", OriginalTitle: "Halloween", ReleaseDate: "2007-08-31"},
			},
			title: "Halloween", year: 1978,
		},
		{
			name:  "empty page",
			title: "Anything", year: 2000,
		},
		{
			name: "tie with unknown year takes first",
			cands: []MovieCandidate{
				{ID: 3, Title: "Crash", OriginalTitle: "Crash", ReleaseDate: "1996"},
				{ID: 4, Title: "Crash", OriginalTitle: "Crash", ReleaseDate: "2004"},
			},
			title: "Crash", wantID: 3, wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BestMovie(tt.cands, tt.title, tt.year)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				require.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}
