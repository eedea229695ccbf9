package hotel

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/go-trip-planner/internal/api/geo"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// DefaultSearchRadiusKm is the maximum distance between an accommodation and
// the centroid of every day it covers.
const DefaultSearchRadiusKm = 30.0

// PriceFunc maps a candidate to the comparable price used for tie-breaks.
type PriceFunc func(types.Suggestion) decimal.Decimal

func priceLocal(s types.Suggestion) decimal.Decimal {
	return s.PriceLocal
}

// Assigner binds contiguous day spans to accommodation candidates.
type Assigner struct {
	radiusKm float64
	price    PriceFunc
}

// NewAssigner returns an Assigner. A nil price compares raw priceLocal.
func NewAssigner(radiusKm float64, price PriceFunc) *Assigner {
	if radiusKm <= 0 {
		radiusKm = DefaultSearchRadiusKm
	}
	if price == nil {
		price = priceLocal
	}
	return &Assigner{radiusKm: radiusKm, price: price}
}

// run is the span being extended. nearby is nil while the span only holds
// free days, which put no constraint on the hotel.
type run struct {
	start  int
	nearby map[int64]types.Suggestion
}

// Assign walks the clusters left to right, extending the current span while
// some candidate stays within the radius of every centroid seen in it. Day i
// of the result is clusters[i]. Days whose own centroid has no candidate in
// range are reported as uncovered; free days join the surrounding span.
func (a *Assigner) Assign(clusters []types.Cluster, candidates []types.Suggestion) types.HotelAssignment {
	out := types.HotelAssignment{Stays: []types.HotelStay{}, UncoveredDays: []int{}}
	var cur *run

	closeRun := func(end int) {
		if cur == nil {
			return
		}
		if cur.nearby == nil {
			for d := cur.start; d <= end; d++ {
				out.UncoveredDays = append(out.UncoveredDays, d+1)
			}
		} else {
			out.Stays = append(out.Stays, types.HotelStay{
				HotelSuggestionID: a.pick(cur.nearby).ID,
				StartDay:          cur.start + 1,
				EndDay:            end + 1,
			})
		}
		cur = nil
	}

	for d, cl := range clusters {
		if cl.Empty() {
			if cur == nil {
				cur = &run{start: d}
			}
			continue
		}

		near := a.within(cl.Centroid, candidates)
		if len(near) == 0 {
			closeRun(d - 1)
			out.UncoveredDays = append(out.UncoveredDays, d+1)
			continue
		}

		switch {
		case cur == nil:
			cur = &run{start: d, nearby: near}
		case cur.nearby == nil:
			cur.nearby = near
		default:
			next := intersect(cur.nearby, near)
			if len(next) == 0 {
				closeRun(d - 1)
				cur = &run{start: d, nearby: near}
				continue
			}
			cur.nearby = next
		}
	}
	closeRun(len(clusters) - 1)

	slices.Sort(out.UncoveredDays)
	return out
}

func (a *Assigner) within(centroid types.Coordinates, candidates []types.Suggestion) map[int64]types.Suggestion {
	near := make(map[int64]types.Suggestion)
	for _, c := range candidates {
		if !c.IsAccommodation {
			continue
		}
		if geo.Distance(centroid, c.Coordinates()) <= a.radiusKm {
			near[c.ID] = c
		}
	}
	return near
}

// pick returns the cheapest candidate, lowest id on equal price. Every member
// of the set is valid for the whole span, so span length needs no comparison.
func (a *Assigner) pick(set map[int64]types.Suggestion) types.Suggestion {
	var best types.Suggestion
	var bestPrice decimal.Decimal
	first := true
	for _, c := range set {
		p := a.price(c)
		if first || p.LessThan(bestPrice) || (p.Equal(bestPrice) && c.ID < best.ID) {
			best, bestPrice, first = c, p, false
		}
	}
	return best
}

func intersect(a, b map[int64]types.Suggestion) map[int64]types.Suggestion {
	out := make(map[int64]types.Suggestion)
	for id, s := range a {
		if _, ok := b[id]; ok {
			out[id] = s
		}
	}
	return out
}
