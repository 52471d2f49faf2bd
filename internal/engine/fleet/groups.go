// internal/engine/fleet/groups.go
package fleet

import (
	"sort"

	"load-analytics-engine/internal/engine/economics"
)

// ViewerRole decides the grouping dimension for the revenue chart.
type ViewerRole string

const (
	RoleDispatcher ViewerRole = "dispatcher"
	RoleOwner      ViewerRole = "owner"
)

// RevenueGroup is one chart bucket.
type RevenueGroup struct {
	Name      string  `json:"name"`
	Gross     float64 `json:"gross"`
	LoadCount int     `json:"loadCount"`
}

// RevenueGroups buckets the filter-respecting (not paginated) set by driver id
// when the viewer is a dispatcher, by dispatcher name otherwise. Buckets come
// back sorted by gross, highest first, for stable chart rendering.
func RevenueGroups(loads []economics.CalculatedLoad, role ViewerRole) []RevenueGroup {
	keyOf := func(l economics.CalculatedLoad) string { return l.Dispatcher }
	if role == RoleDispatcher {
		keyOf = func(l economics.CalculatedLoad) string { return l.DriverID }
	}

	byKey := map[string]*RevenueGroup{}
	order := []string{}
	for _, l := range loads {
		key := keyOf(l)
		if key == "" {
			key = "unassigned"
		}
		g, ok := byKey[key]
		if !ok {
			g = &RevenueGroup{Name: key}
			byKey[key] = g
			order = append(order, key)
		}
		g.Gross += l.Gross
		g.LoadCount++
	}

	out := make([]RevenueGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Gross > out[j].Gross })
	return out
}
