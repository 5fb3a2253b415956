// Package geo maps free-text birth places to country names.
package geo

import "strings"

var countries = []string{
	"Afghanistan", "Albania", "Algeria", "Andorra", "Angola", "Antigua and Barbuda", "Argentina", "Armenia", "Australia", "Austria", "Azerbaijan",
	"Bahamas", "Bahrain", "Bangladesh", "Barbados", "Belarus", "Belgium", "Belize", "Benin", "Bhutan", "Bolivia", "Bosnia and Herzegovina", "Botswana", "Brazil", "Brunei", "Bulgaria", "Burkina Faso", "Burundi",
	"Cambodia", "Cameroon", "Canada", "Cape Verde", "Central African Republic", "Chad", "Chile", "China", "Colombia", "Comoros", "Costa Rica", "Croatia", "Cuba", "Cyprus", "Czech Republic",
	"Denmark", "Djibouti", "Dominica", "Dominican Republic",
	"East Timor", "Ecuador", "Egypt", "El Salvador", "Equatorial Guinea", "Eritrea", "Estonia", "Eswatini", "Ethiopia",
	"Fiji", "Finland", "France",
	"Gabon", "Gambia", "Georgia", "Germany", "Ghana", "Greece", "Grenada", "Guatemala", "Guinea", "Guinea-Bissau", "Guyana",
	"Haiti", "Honduras", "Hong Kong", "Hungary",
	"Iceland", "India", "Indonesia", "Iran", "Iraq", "Ireland", "Israel", "Italy",
	"Jamaica", "Japan", "Jordan",
	"Kazakhstan", "Kenya", "Kiribati", "North Korea", "South Korea", "Kuwait", "Kyrgyzstan",
	"Laos", "Latvia", "Lebanon", "Lesotho", "Liberia", "Libya", "Liechtenstein", "Lithuania", "Luxembourg",
	"Madagascar", "Malawi", "Malaysia", "Maldives", "Mali", "Malta", "Marshall Islands", "Mauritania", "Mauritius", "Mexico", "Micronesia", "Moldova", "Monaco", "Mongolia", "Montenegro", "Morocco", "Mozambique", "Myanmar",
	"Namibia", "Nauru", "Nepal", "Netherlands", "New Zealand", "Nicaragua", "Niger", "Nigeria", "North Macedonia", "Norway",
	"Oman",
	"Pakistan", "Palau", "Panama", "Papua New Guinea", "Paraguay", "Peru", "Philippines", "Poland", "Portugal", "Puerto Rico",
	"Qatar",
	"Romania", "Russia", "Rwanda",
	"Saint Kitts and Nevis", "Saint Lucia", "Saint Vincent and the Grenadines", "Samoa", "San Marino", "Sao Tome and Principe", "Saudi Arabia", "Senegal", "Serbia", "Seychelles", "Sierra Leone", "Singapore", "Slovakia", "Slovenia", "Solomon Islands", "Somalia", "South Africa", "South Sudan", "Spain", "Sri Lanka", "Sudan", "Suriname", "Sweden", "Switzerland", "Syria",
	"Taiwan", "Tajikistan", "Tanzania", "Thailand", "Togo", "Tonga", "Trinidad and Tobago", "Tunisia", "Turkey", "Turkmenistan", "Tuvalu", "the Federated States of Micronesia",
	"Uganda", "Ukraine", "United Arab Emirates", "United Kingdom", "United States", "Uruguay", "Uzbekistan",
	"Vanuatu", "Vatican City", "Venezuela", "Vietnam",
	"Yemen",
	"Zambia", "Zimbabwe",
}

// aliases folds former and informal names onto the spelling used in countries.
var aliases = map[string]string{
	"usa":                        "United States",
	"us":                         "United States",
	"u.s.":                       "United States",
	"u.s.a.":                     "United States",
	"united states of america":   "United States",
	"uk":                         "United Kingdom",
	"u.k.":                       "United Kingdom",
	"england":                    "United Kingdom",
	"scotland":                   "United Kingdom",
	"wales":                      "United Kingdom",
	"northern ireland":           "United Kingdom",
	"great britain":              "United Kingdom",
	"ussr":                       "Russia",
	"soviet union":               "Russia",
	"russian federation":         "Russia",
	"russian empire":             "Russia",
	"west germany":               "Germany",
	"east germany":               "Germany",
	"german empire":              "Germany",
	"czechoslovakia":             "Czech Republic",
	"czechia":                    "Czech Republic",
	"yugoslavia":                 "Serbia",
	"korea":                      "South Korea",
	"republic of korea":          "South Korea",
	"the netherlands":            "Netherlands",
	"holland":                    "Netherlands",
	"persia":                     "Iran",
	"burma":                      "Myanmar",
	"british hong kong":          "Hong Kong",
	"british india":              "India",
	"people's republic of china": "China",
}

func IsCountry(place string) bool {
	_, ok := lookup(place)
	return ok
}

func IdentifyPlace(place string) string {
	if IsCountry(place) {
		return "country"
	}
	return "city"
}

func lookup(place string) (string, bool) {
	place = strings.TrimSpace(place)
	for _, c := range countries {
		if strings.EqualFold(c, place) {
			return c, true
		}
	}
	if c, ok := aliases[strings.ToLower(place)]; ok {
		return c, true
	}
	return "", false
}

// Country returns the country of a birth place such as
// "Los Angeles, California, USA". Segments are tried right to left; an
// unknown last segment is returned trimmed, an empty place yields "".
func Country(place string) string {
	place = strings.TrimSpace(place)
	if place == "" {
		return ""
	}

	parts := strings.Split(place, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		// "Russian Empire [now Ukraine]": the bracketed note wins
		notes := strings.FieldsFunc(parts[i], func(r rune) bool { return r == '[' || r == '(' })
		for j := len(notes) - 1; j >= 0; j-- {
			if c, ok := matchSegment(notes[j]); ok {
				return c
			}
		}
	}
	return strings.TrimSpace(parts[len(parts)-1])
}

func matchSegment(seg string) (string, bool) {
	seg = strings.Trim(strings.TrimSpace(seg), "[]() ")
	if seg == "" {
		return "", false
	}
	if c, ok := lookup(seg); ok {
		return c, true
	}
	for _, prefix := range []string{"now ", "present-day ", "today "} {
		if rest, ok := strings.CutPrefix(strings.ToLower(seg), prefix); ok {
			return lookup(rest)
		}
	}
	return "", false
}
