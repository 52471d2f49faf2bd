// internal/engine/routes/scatter.go
package routes

import (
	"sort"

	"load-analytics-engine/internal/engine/geocode"
)

// ScatterPoint aggregates every route sharing a destination, for the
// destination scatter map. Only destinations with resolved coordinates appear.
type ScatterPoint struct {
	Destination string              `json:"destination"`
	Coords      geocode.Coordinates `json:"coords"`

	LoadCount      int     `json:"loadCount"`
	TotalGross     float64 `json:"totalGross"`
	TotalNetProfit float64 `json:"totalNetProfit"`
	RatePerMile    float64 `json:"ratePerMile"`

	Profitability Profitability `json:"profitability"`
	MarkerRadius  float64       `json:"markerRadius"`
}

// ScatterPoints folds routes into destination-level points. The rate-per-mile
// is volume-weighted: total gross over total miles across contributing routes,
// not an average of per-route rates.
func ScatterPoints(routes []RouteAnalysis) []ScatterPoint {
	type acc struct {
		point ScatterPoint
		miles float64
	}
	byDest := map[string]*acc{}
	order := []string{}

	for _, r := range routes {
		if r.DestinationCoords == nil {
			continue
		}
		key := geocode.Normalize(r.Destination)
		a, ok := byDest[key]
		if !ok {
			a = &acc{point: ScatterPoint{
				Destination: r.Destination,
				Coords:      *r.DestinationCoords,
			}}
			byDest[key] = a
			order = append(order, key)
		}
		a.point.LoadCount += r.LoadCount
		a.point.TotalGross += r.TotalGross
		a.point.TotalNetProfit += r.TotalNetProfit
		a.miles += r.TotalMiles
	}

	out := make([]ScatterPoint, 0, len(order))
	for _, key := range order {
		a := byDest[key]
		if a.miles > 0 {
			a.point.RatePerMile = a.point.TotalGross / a.miles
		}
		a.point.Profitability = Classify(a.point.RatePerMile)
		a.point.MarkerRadius = MarkerRadius(a.point.LoadCount)
		out = append(out, a.point)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LoadCount > out[j].LoadCount })
	return out
}
