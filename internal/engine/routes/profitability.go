// internal/engine/routes/profitability.go
package routes

// Profitability buckets a route's rate-per-mile for map rendering. The
// thresholds encode the business taxonomy, so they live here and not in the
// presentation layer.
type Profitability string

const (
	VeryProfitable Profitability = "very_profitable"
	Profitable     Profitability = "profitable"
	Moderate       Profitability = "moderate"
	Low            Profitability = "low"
)

// Classify maps rate-per-mile to its profitability bucket.
func Classify(ratePerMile float64) Profitability {
	switch {
	case ratePerMile > 2.5:
		return VeryProfitable
	case ratePerMile > 2.0:
		return Profitable
	case ratePerMile > 1.5:
		return Moderate
	default:
		return Low
	}
}

// Color returns the map marker color for a profitability bucket.
func (p Profitability) Color() string {
	switch p {
	case VeryProfitable:
		return "#1a9850"
	case Profitable:
		return "#91cf60"
	case Moderate:
		return "#fee08b"
	default:
		return "#d73027"
	}
}

const (
	minMarkerRadius = 6.0
	maxMarkerRadius = 22.0
	// markerCeiling is the load count at which a marker reaches full size.
	markerCeiling = 100.0
)

// MarkerRadius scales linearly with load count against a 100-load ceiling,
// clamped to the [min, max] pixel range.
func MarkerRadius(loadCount int) float64 {
	frac := float64(loadCount) / markerCeiling
	if frac > 1 {
		frac = 1
	}
	if frac < 0 {
		frac = 0
	}
	return minMarkerRadius + frac*(maxMarkerRadius-minMarkerRadius)
}
