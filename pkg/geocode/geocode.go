// Package geocode provides address geocoding via the Census Geocoder
// (primary), Google (fallback), and an offline city-centroid table. Each
// backend implements the resolve.Provider contract so the pipeline can run
// them as an ordered fallback chain.
package geocode

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.AmericanEnglish)

// presentAddress turns an all-caps matched address (Census style) into a
// presentable form, keeping two-letter state codes upper-cased.
func presentAddress(addr string) string {
	parts := strings.Split(titleCaser.String(strings.ToLower(addr)), ",")
	for i, p := range parts {
		trimmed := strings.TrimSpace(p)
		if len(trimmed) == 2 && i >= 2 {
			parts[i] = " " + strings.ToUpper(trimmed)
		}
	}
	return strings.Join(parts, ",")
}

// cityState extracts "city" and "ST" from a free-form one-line address of
// the shape "street, city, ST [zip]". Returns ok=false when the address has
// too few components.
func cityState(address string) (city, state string, ok bool) {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return "", "", false
	}
	city = strings.TrimSpace(parts[len(parts)-2])
	last := strings.Fields(strings.TrimSpace(parts[len(parts)-1]))
	if len(last) == 0 {
		return "", "", false
	}
	state = strings.ToUpper(last[0])
	if len(state) != 2 {
		return "", "", false
	}
	return city, state, true
}
