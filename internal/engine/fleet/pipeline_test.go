// internal/engine/fleet/pipeline_test.go
package fleet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"load-analytics-engine/internal/engine/economics"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC)
}

func fixtureLoads() []economics.Load {
	return []economics.Load{
		{ID: "l1", Broker: "Acme Logistics", Gross: 1000, Miles: 400, DropDate: day(1), Dispatcher: "alice", DriverID: "d1", Origin: "Dallas, TX", Destination: "Atlanta, GA"},
		{ID: "l2", Broker: "Bulk Freight", Gross: 2500, Miles: 900, DropDate: day(5), Dispatcher: "bob", DriverID: "d2", Origin: "Houston, TX", Destination: "Miami, FL"},
		{ID: "l3", Broker: "acme logistics", Gross: 1800, Miles: 650, DropDate: day(3), Dispatcher: "alice", DriverID: "d1", Origin: "Austin, TX", Destination: "Nashville, TN"},
		{ID: "l4", Broker: "Coastal Carriers", Gross: 900, Miles: 300, DropDate: day(8), Dispatcher: "carol", DriverID: "d3", Origin: "Tampa, FL", Destination: "Atlanta, GA"},
		{ID: "l5", Broker: "Bulk Freight", Gross: 3100, Miles: 1200, DropDate: day(5), Dispatcher: "bob", DriverID: "d2", Origin: "El Paso, TX", Destination: "Chicago, IL"},
	}
}

func newTestPipeline() *Pipeline {
	return NewPipeline(economics.NewCalculator(nil, nil))
}

func TestPipeline_DefaultSortNewestFirst(t *testing.T) {
	res := newTestPipeline().Run(fixtureLoads(), Filter{}, Sort{}, Page{Number: 1, Size: 10})

	require.Len(t, res.Loads, 5)
	assert.Equal(t, "l4", res.Loads[0].ID)
	// l2 and l5 share a drop date: stable tie-break keeps input order.
	assert.Equal(t, "l2", res.Loads[1].ID)
	assert.Equal(t, "l5", res.Loads[2].ID)
	assert.Equal(t, "l3", res.Loads[3].ID)
	assert.Equal(t, "l1", res.Loads[4].ID)
}

func TestApplyFilter(t *testing.T) {
	calc := economics.NewCalculator(nil, nil)
	all := calc.CalculateAll(fixtureLoads())

	t.Run("search matches broker case-insensitively", func(t *testing.T) {
		got := ApplyFilter(all, Filter{Search: "ACME"})
		assert.Len(t, got, 2)
	})

	t.Run("search matches origin and destination", func(t *testing.T) {
		got := ApplyFilter(all, Filter{Search: "atlanta"})
		assert.Len(t, got, 2)
	})

	t.Run("driver id is an exact match", func(t *testing.T) {
		got := ApplyFilter(all, Filter{DriverID: "d2"})
		assert.Len(t, got, 2)
		got = ApplyFilter(all, Filter{DriverID: "d"})
		assert.Len(t, got, 0)
	})

	t.Run("date bounds are inclusive of whole days", func(t *testing.T) {
		from := time.Date(2024, 3, 3, 23, 0, 0, 0, time.UTC) // late in the day
		to := time.Date(2024, 3, 5, 0, 30, 0, 0, time.UTC)   // early in the day
		fromP, toP := from, to
		got := ApplyFilter(all, Filter{From: &fromP, To: &toP})
		// From normalizes to 03-03 00:00 and To to 03-05 23:59:59.999, so
		// l3 (03-03) and both 03-05 loads qualify.
		assert.Len(t, got, 3)
	})

	t.Run("all filters compose", func(t *testing.T) {
		from := day(1)
		got := ApplyFilter(all, Filter{Search: "bulk", DriverID: "d2", From: &from})
		assert.Len(t, got, 2)
	})

	t.Run("empty filter keeps everything", func(t *testing.T) {
		got := ApplyFilter(all, Filter{})
		assert.Len(t, got, 5)
	})
}

func TestApplySort(t *testing.T) {
	calc := economics.NewCalculator(nil, nil)
	all := calc.CalculateAll(fixtureLoads())

	t.Run("numeric ascending", func(t *testing.T) {
		got := ApplySort(all, Sort{Key: "gross"})
		assert.Equal(t, "l4", got[0].ID)
		assert.Equal(t, "l5", got[len(got)-1].ID)
	})

	t.Run("numeric descending", func(t *testing.T) {
		got := ApplySort(all, Sort{Key: "miles", Desc: true})
		assert.Equal(t, "l5", got[0].ID)
	})

	t.Run("string keys compare case-insensitively", func(t *testing.T) {
		got := ApplySort(all, Sort{Key: "broker"})
		// "Acme Logistics" and "acme logistics" group together at the front.
		assert.ElementsMatch(t, []string{"l1", "l3"}, []string{got[0].ID, got[1].ID})
	})

	t.Run("double inversion restores order", func(t *testing.T) {
		asc := ApplySort(all, Sort{Key: "gross"})
		down := ApplySort(asc, Sort{Key: "gross", Desc: true})
		up := ApplySort(down, Sort{Key: "gross"})
		for i := range asc {
			assert.Equal(t, asc[i].ID, up[i].ID)
		}
	})

	t.Run("unknown key keeps order", func(t *testing.T) {
		got := ApplySort(all, Sort{Key: "no-such-column"})
		for i := range all {
			assert.Equal(t, all[i].ID, got[i].ID)
		}
	})
}

func TestDefaultDirection(t *testing.T) {
	for _, key := range []string{"dropDate", "gross", "dispatchFee", "driverPay", "miles"} {
		assert.True(t, DefaultDirection(key), key)
	}
	assert.False(t, DefaultDirection("broker"))
	assert.False(t, DefaultDirection("netProfit"))
}

func TestPagination(t *testing.T) {
	p := newTestPipeline()

	t.Run("page count and last page size", func(t *testing.T) {
		res := p.Run(fixtureLoads(), Filter{}, Sort{}, Page{Number: 3, Size: 2})
		assert.Equal(t, 5, res.FilteredCount)
		assert.Equal(t, 3, res.PageCount)
		assert.Len(t, res.Loads, 1) // 5 - 2*2
	})

	t.Run("page beyond range clamps to last page", func(t *testing.T) {
		res := p.Run(fixtureLoads(), Filter{}, Sort{}, Page{Number: 9, Size: 2})
		assert.Equal(t, 3, res.Page)
		assert.Len(t, res.Loads, 1)
	})

	t.Run("zero page size uses default", func(t *testing.T) {
		res := p.Run(fixtureLoads(), Filter{}, Sort{}, Page{Number: 1})
		assert.Len(t, res.Loads, 5)
		assert.Equal(t, 1, res.PageCount)
	})

	t.Run("empty set has zero pages", func(t *testing.T) {
		res := p.Run(nil, Filter{}, Sort{}, Page{Number: 1, Size: 10})
		assert.Equal(t, 0, res.FilteredCount)
		assert.Equal(t, 0, res.PageCount)
		assert.Empty(t, res.Loads)
	})

	t.Run("filtering everything away also has zero pages", func(t *testing.T) {
		res := p.Run(fixtureLoads(), Filter{Search: "no such broker"}, Sort{}, Page{Number: 4, Size: 2})
		assert.Equal(t, 0, res.FilteredCount)
		assert.Equal(t, 0, res.PageCount)
		assert.Equal(t, 1, res.Page)
		assert.Empty(t, res.Loads)
	})
}

func TestRevenueGroups(t *testing.T) {
	p := newTestPipeline()
	filtered := p.Filtered(fixtureLoads(), Filter{})

	t.Run("owner view groups by dispatcher name", func(t *testing.T) {
		groups := RevenueGroups(filtered, RoleOwner)
		require.Len(t, groups, 3)
		assert.Equal(t, "bob", groups[0].Name)
		assert.Equal(t, 5600.0, groups[0].Gross)
		assert.Equal(t, 2, groups[0].LoadCount)
	})

	t.Run("dispatcher view groups by driver id", func(t *testing.T) {
		groups := RevenueGroups(filtered, RoleDispatcher)
		require.Len(t, groups, 3)
		byName := map[string]RevenueGroup{}
		for _, g := range groups {
			byName[g.Name] = g
		}
		assert.Equal(t, 2, byName["d1"].LoadCount)
		assert.Equal(t, 2800.0, byName["d1"].Gross)
	})

	t.Run("grouping respects filters but not pagination", func(t *testing.T) {
		filtered := p.Filtered(fixtureLoads(), Filter{Search: "bulk"})
		groups := RevenueGroups(filtered, RoleOwner)
		require.Len(t, groups, 1)
		assert.Equal(t, 2, groups[0].LoadCount)
	})

	t.Run("missing driver id buckets as unassigned", func(t *testing.T) {
		loads := fixtureLoads()
		loads[0].DriverID = ""
		filtered := p.Filtered(loads, Filter{})
		groups := RevenueGroups(filtered, RoleDispatcher)
		names := map[string]bool{}
		for _, g := range groups {
			names[g.Name] = true
		}
		assert.True(t, names["unassigned"])
	})
}
