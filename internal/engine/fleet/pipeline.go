// internal/engine/fleet/pipeline.go
package fleet

import (
	"math"
	"sort"
	"strings"
	"time"

	"load-analytics-engine/internal/engine/economics"
)

// Filter narrows the annotated load set. Zero values mean "no constraint".
type Filter struct {
	Search   string     `json:"search"`
	DriverID string     `json:"driverId"`
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
}

// Sort picks the column and direction for the final ordering.
type Sort struct {
	Key  string `json:"key"`
	Desc bool   `json:"desc"`
}

// Page is a 1-based page request with a fixed page size.
type Page struct {
	Number int `json:"number"`
	Size   int `json:"size"`
}

const DefaultPageSize = 10

// Result is one page of the pipeline output plus the counts the presentation
// layer needs to render a pager.
type Result struct {
	Loads         []economics.CalculatedLoad `json:"loads"`
	FilteredCount int                        `json:"filteredCount"`
	PageCount     int                        `json:"pageCount"`
	Page          int                        `json:"page"`
}

// descendingByDefault lists sort keys whose first click sorts high-to-low.
var descendingByDefault = map[string]bool{
	"dropDate":    true,
	"gross":       true,
	"dispatchFee": true,
	"driverPay":   true,
	"miles":       true,
}

// Pipeline runs annotate -> default sort -> filter -> sort -> paginate over raw
// loads. Every step works on copies of the slice header; input order is never
// mutated.
type Pipeline struct {
	calc *economics.Calculator
}

func NewPipeline(calc *economics.Calculator) *Pipeline {
	return &Pipeline{calc: calc}
}

// Run executes the full pipeline and returns the requested page.
func (p *Pipeline) Run(loads []economics.Load, filter Filter, sortBy Sort, page Page) Result {
	calculated := p.calc.CalculateAll(loads)
	calculated = defaultSort(calculated)
	calculated = ApplyFilter(calculated, filter)
	calculated = ApplySort(calculated, sortBy)
	return paginate(calculated, page)
}

// Filtered runs annotate + default sort + filter only. The revenue grouping
// consumes this (the full filtered set, not a page).
func (p *Pipeline) Filtered(loads []economics.Load, filter Filter) []economics.CalculatedLoad {
	calculated := p.calc.CalculateAll(loads)
	calculated = defaultSort(calculated)
	return ApplyFilter(calculated, filter)
}

// defaultSort orders newest drop date first; ties keep original order.
func defaultSort(loads []economics.CalculatedLoad) []economics.CalculatedLoad {
	out := make([]economics.CalculatedLoad, len(loads))
	copy(out, loads)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DropDate.After(out[j].DropDate)
	})
	return out
}

// ApplyFilter keeps loads matching all supplied criteria. The text search is a
// case-insensitive substring match over broker, origin and destination. Date
// bounds are inclusive, normalized to the start and end of their days.
func ApplyFilter(loads []economics.CalculatedLoad, f Filter) []economics.CalculatedLoad {
	query := strings.ToLower(strings.TrimSpace(f.Search))

	var from, to time.Time
	if f.From != nil {
		from = startOfDay(*f.From)
	}
	if f.To != nil {
		to = endOfDay(*f.To)
	}

	out := make([]economics.CalculatedLoad, 0, len(loads))
	for _, l := range loads {
		if query != "" && !matchesQuery(l, query) {
			continue
		}
		if f.DriverID != "" && l.DriverID != f.DriverID {
			continue
		}
		if f.From != nil && l.DropDate.Before(from) {
			continue
		}
		if f.To != nil && l.DropDate.After(to) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesQuery(l economics.CalculatedLoad, query string) bool {
	return strings.Contains(strings.ToLower(l.Broker), query) ||
		strings.Contains(strings.ToLower(l.Origin), query) ||
		strings.Contains(strings.ToLower(l.Destination), query)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, t.Location())
}

// ApplySort orders by the requested key. Unknown keys degrade to comparing
// empty strings, which leaves the order untouched rather than failing. When
// Desc is not set explicitly by the caller struct, the zero value means
// ascending; callers wanting the first-click defaults should consult
// DefaultDirection.
func ApplySort(loads []economics.CalculatedLoad, s Sort) []economics.CalculatedLoad {
	if s.Key == "" {
		return loads
	}
	out := make([]economics.CalculatedLoad, len(loads))
	copy(out, loads)

	less := lessFunc(s.Key)
	sort.SliceStable(out, func(i, j int) bool {
		if s.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// DefaultDirection reports whether a key sorts descending on first use.
func DefaultDirection(key string) bool {
	return descendingByDefault[key]
}

func lessFunc(key string) func(a, b economics.CalculatedLoad) bool {
	switch key {
	case "gross":
		return func(a, b economics.CalculatedLoad) bool { return a.Gross < b.Gross }
	case "miles":
		return func(a, b economics.CalculatedLoad) bool { return a.Miles < b.Miles }
	case "gasAmount":
		return func(a, b economics.CalculatedLoad) bool { return a.GasAmount < b.GasAmount }
	case "dispatchFee":
		return func(a, b economics.CalculatedLoad) bool { return a.DispatchFee < b.DispatchFee }
	case "driverPay":
		return func(a, b economics.CalculatedLoad) bool { return a.DriverPay < b.DriverPay }
	case "netProfit":
		return func(a, b economics.CalculatedLoad) bool { return a.NetProfit < b.NetProfit }
	case "dropDate":
		return func(a, b economics.CalculatedLoad) bool { return a.DropDate.Before(b.DropDate) }
	case "broker":
		return stringLess(func(l economics.CalculatedLoad) string { return l.Broker })
	case "origin":
		return stringLess(func(l economics.CalculatedLoad) string { return l.Origin })
	case "destination":
		return stringLess(func(l economics.CalculatedLoad) string { return l.Destination })
	case "dispatcher":
		return stringLess(func(l economics.CalculatedLoad) string { return l.Dispatcher })
	case "status":
		return stringLess(func(l economics.CalculatedLoad) string { return string(l.Status) })
	default:
		// Unrecognized key: compare nothing, keep order. Degraded, not an error.
		return func(a, b economics.CalculatedLoad) bool { return false }
	}
}

func stringLess(get func(economics.CalculatedLoad) string) func(a, b economics.CalculatedLoad) bool {
	return func(a, b economics.CalculatedLoad) bool {
		return strings.ToLower(get(a)) < strings.ToLower(get(b))
	}
}

func paginate(loads []economics.CalculatedLoad, page Page) Result {
	size := page.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	num := page.Number
	if num < 1 {
		num = 1
	}

	total := len(loads)
	// pageCount is ceil(total/size); an empty filtered set has zero pages.
	// The reported page still clamps to at least 1 so slicing stays in range.
	pageCount := int(math.Ceil(float64(total) / float64(size)))
	if pageCount == 0 {
		num = 1
	} else if num > pageCount {
		num = pageCount
	}

	start := (num - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Result{
		Loads:         loads[start:end],
		FilteredCount: total,
		PageCount:     pageCount,
		Page:          num,
	}
}
