package tmdb

import (
	"strings"
	"time"

	"soundtrack/internal/models"
	"soundtrack/pkg/geo"
)

func isComposer(job string) bool {
	return strings.Contains(strings.ToLower(job), "composer")
}

// ComposerIDs returns the ids of crew members whose job mentions
// "composer", in crew order and without repeats.
func ComposerIDs(c Credits) []int {
	var ids []int
	seen := map[int]bool{}
	for _, m := range c.Crew {
		if !isComposer(m.Job) || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		ids = append(ids, m.ID)
	}
	return ids
}

// FirstCredit returns the earliest release date among the composing credits,
// formatted YYYY-MM-DD, or "" if there is none.
func FirstCredit(credits MovieCredits) string {
	var first time.Time
	for _, c := range credits.Crew {
		if !isComposer(c.Job) || c.ReleaseDate == "" {
			continue
		}
		d, err := time.Parse(time.DateOnly, c.ReleaseDate)
		if err != nil {
			continue
		}
		if first.IsZero() || d.Before(first) {
			first = d
		}
	}
	if first.IsZero() {
		return ""
	}
	return first.Format(time.DateOnly)
}

// ComposerFromPerson builds the composer record of a person response.
func ComposerFromPerson(p Person) models.Composer {
	c := models.Composer{
		ID:          p.ID,
		Name:        p.Name,
		Birthday:    deref(p.Birthday),
		Gender:      p.Gender,
		Homepage:    deref(p.Homepage),
		FirstCredit: FirstCredit(p.MovieCredits),
	}
	c.PlaceOfBirth = deref(p.PlaceOfBirth)
	c.Country = geo.Country(c.PlaceOfBirth)
	return c
}

// RevenueOf returns the box-office revenue. Zero and null both mean unknown.
func RevenueOf(d MovieDetails) (int64, bool) {
	if d.Revenue == nil || *d.Revenue == 0 {
		return 0, false
	}
	return *d.Revenue, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
