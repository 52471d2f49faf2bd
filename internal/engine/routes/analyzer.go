// internal/engine/routes/analyzer.go
package routes

import (
	"context"
	"sort"
	"strings"
	"time"

	"load-analytics-engine/internal/engine/economics"
	"load-analytics-engine/internal/engine/geocode"
)

// Filters narrows routes by pickup and/or destination text. Matching is
// bidirectional substring containment after normalization: the filter matches
// when either string contains the other. This is order-independent and can
// match unintended partials ("texas" matches "new texas city"); that precision
// limit is accepted behavior, not a bug.
type Filters struct {
	Pickup      string `json:"pickup"`
	Destination string `json:"destination"`
}

// SortKey ranks the route list. All keys sort descending.
type SortKey string

const (
	SortByLoadCount   SortKey = "loadCount"
	SortByAvgGross    SortKey = "avgGross"
	SortByRatePerMile SortKey = "ratePerMile"
	SortByAvgNet      SortKey = "avgNetProfit"
)

// RouteAnalysis aggregates every load sharing a normalized origin-destination
// pair. Coordinates stay nil until geocoded and remain nil when geocoding
// fails; consumers tolerate zero, one or two resolved endpoints.
type RouteAnalysis struct {
	Key         string `json:"key"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`

	LoadCount      int     `json:"loadCount"`
	TotalGross     float64 `json:"totalGross"`
	AvgGross       float64 `json:"avgGross"`
	TotalMiles     float64 `json:"totalMiles"`
	AvgMiles       float64 `json:"avgMiles"`
	TotalNetProfit float64 `json:"totalNetProfit"`
	AvgNetProfit   float64 `json:"avgNetProfit"`
	RatePerMile    float64 `json:"ratePerMile"`

	Best  economics.CalculatedLoad `json:"bestLoad"`
	Worst economics.CalculatedLoad `json:"worstLoad"`

	FirstDrop time.Time `json:"firstDrop"`
	LastDrop  time.Time `json:"lastDrop"`

	OriginCoords      *geocode.Coordinates `json:"originCoords,omitempty"`
	DestinationCoords *geocode.Coordinates `json:"destinationCoords,omitempty"`

	Loads []economics.CalculatedLoad `json:"loads"`
}

// Analyzer groups calculated loads into routes and resolves their endpoints.
type Analyzer struct {
	resolver *geocode.Resolver
}

func NewAnalyzer(resolver *geocode.Resolver) *Analyzer {
	return &Analyzer{resolver: resolver}
}

// Analyze is always a full recompute over the filtered input; route aggregates
// never reference loads outside that set.
func (a *Analyzer) Analyze(ctx context.Context, loads []economics.CalculatedLoad, filters Filters, sortKey SortKey) []RouteAnalysis {
	filtered := applyFilters(loads, filters)
	routes := groupRoutes(filtered)

	if a.resolver != nil {
		for i := range routes {
			routes[i].OriginCoords = a.resolver.Resolve(ctx, routes[i].Origin)
			routes[i].DestinationCoords = a.resolver.Resolve(ctx, routes[i].Destination)
		}
	}

	sortRoutes(routes, sortKey)
	return routes
}

func applyFilters(loads []economics.CalculatedLoad, f Filters) []economics.CalculatedLoad {
	pickup := geocode.Normalize(f.Pickup)
	dest := geocode.Normalize(f.Destination)
	if pickup == "" && dest == "" {
		return loads
	}

	out := make([]economics.CalculatedLoad, 0, len(loads))
	for _, l := range loads {
		if pickup != "" && !looseMatch(geocode.Normalize(l.Origin), pickup) {
			continue
		}
		if dest != "" && !looseMatch(geocode.Normalize(l.Destination), dest) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func looseMatch(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func groupRoutes(loads []economics.CalculatedLoad) []RouteAnalysis {
	byKey := map[string]*RouteAnalysis{}
	order := []string{}

	for _, l := range loads {
		key := geocode.Normalize(l.Origin) + "-" + geocode.Normalize(l.Destination)
		r, ok := byKey[key]
		if !ok {
			r = &RouteAnalysis{
				Key:         key,
				Origin:      l.Origin,
				Destination: l.Destination,
				Best:        l,
				Worst:       l,
				FirstDrop:   l.DropDate,
				LastDrop:    l.DropDate,
			}
			byKey[key] = r
			order = append(order, key)
		}

		r.LoadCount++
		r.TotalGross += l.Gross
		r.TotalMiles += l.Miles
		r.TotalNetProfit += l.NetProfit
		r.Loads = append(r.Loads, l)

		if l.Gross > r.Best.Gross {
			r.Best = l
		}
		if l.Gross < r.Worst.Gross {
			r.Worst = l
		}
		if l.DropDate.Before(r.FirstDrop) {
			r.FirstDrop = l.DropDate
		}
		if l.DropDate.After(r.LastDrop) {
			r.LastDrop = l.DropDate
		}
	}

	out := make([]RouteAnalysis, 0, len(order))
	for _, key := range order {
		r := byKey[key]
		n := float64(r.LoadCount)
		r.AvgGross = r.TotalGross / n
		r.AvgMiles = r.TotalMiles / n
		r.AvgNetProfit = r.TotalNetProfit / n
		if r.TotalMiles > 0 {
			r.RatePerMile = r.TotalGross / r.TotalMiles
		}
		out = append(out, *r)
	}
	return out
}

func sortRoutes(routes []RouteAnalysis, key SortKey) {
	value := func(r RouteAnalysis) float64 {
		switch key {
		case SortByAvgGross:
			return r.AvgGross
		case SortByRatePerMile:
			return r.RatePerMile
		case SortByAvgNet:
			return r.AvgNetProfit
		default:
			return float64(r.LoadCount)
		}
	}
	sort.SliceStable(routes, func(i, j int) bool {
		return value(routes[i]) > value(routes[j])
	})
}
