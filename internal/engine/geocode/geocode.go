// internal/engine/geocode/geocode.go
package geocode

import "strings"

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Normalize canonicalizes a free-text place string ("City, ST") so that
// " Dallas,  TX " and "dallas, tx" share one cache key and one route group.
func Normalize(place string) string {
	fields := strings.Fields(strings.ToLower(place))
	return strings.Join(fields, " ")
}
