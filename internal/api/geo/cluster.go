package geo

import (
	"cmp"
	"math"
	"slices"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// DefaultClusterRadiusKm bounds the centroid distance of a regular merge.
const DefaultClusterRadiusKm = 50.0

// distances closer than this are considered equal when breaking ties
const tieEpsilonKm = 1e-9

// group is one working cluster. ids is kept sorted ascending.
type group struct {
	ids      []int64
	points   []types.Coordinates
	centroid types.Coordinates
	forced   bool
}

func (g group) minID() int64 {
	return g.ids[0]
}

// Clusterer groups activities into day-sized geographic clusters by
// agglomerative merging of the nearest pair of centroids.
type Clusterer struct {
	radiusKm float64
}

func NewClusterer(radiusKm float64) *Clusterer {
	if radiusKm <= 0 {
		radiusKm = DefaultClusterRadiusKm
	}
	return &Clusterer{radiusKm: radiusKm}
}

// Cluster returns exactly durationDays clusters in visiting order.
// Accommodation suggestions are ignored. Pairs are merged while their
// centroids are within the radius and the count differs from durationDays;
// if more clusters than days remain, the closest pairs are then merged
// regardless of distance and flagged LongTransfer. Missing days are returned
// as trailing empty clusters.
func (c *Clusterer) Cluster(suggestions []types.Suggestion, durationDays int) []types.Cluster {
	if durationDays < 1 {
		durationDays = 1
	}

	m := newMerger(singletons(suggestions))

	for m.live != durationDays {
		i, j, d, ok := m.closestPair()
		if !ok || d > c.radiusKm {
			break
		}
		m.merge(i, j, false)
	}

	for m.live > durationDays {
		i, j, _, _ := m.closestPair()
		m.merge(i, j, true)
	}

	ordered := visitOrder(m.remaining())
	out := make([]types.Cluster, durationDays)
	for idx := range out {
		out[idx] = types.Cluster{Index: idx, SuggestionIDs: []int64{}}
		if idx < len(ordered) {
			g := ordered[idx]
			out[idx].SuggestionIDs = slices.Clone(g.ids)
			out[idx].Centroid = g.centroid
			out[idx].LongTransfer = g.forced
		}
	}
	return out
}

func singletons(suggestions []types.Suggestion) []group {
	groups := make([]group, 0, len(suggestions))
	for _, s := range suggestions {
		if s.IsAccommodation {
			continue
		}
		p := s.Coordinates()
		groups = append(groups, group{
			ids:      []int64{s.ID},
			points:   []types.Coordinates{p},
			centroid: p,
		})
	}
	slices.SortFunc(groups, func(a, b group) int {
		return cmp.Compare(a.minID(), b.minID())
	})
	return groups
}

// merger holds the working clusters with a cached centroid distance matrix
// and each cluster's nearest partner. Slots keep their index for the whole
// run; a merge folds the higher slot into the lower one and retires it, so
// live slots stay ordered by lowest id.
type merger struct {
	groups  []group
	alive   []bool
	dist    []float64 // n*n, row-major
	nearest []int     // -1 when the slot has no live partner
	live    int
}

func newMerger(groups []group) *merger {
	n := len(groups)
	m := &merger{
		groups:  groups,
		alive:   make([]bool, n),
		dist:    make([]float64, n*n),
		nearest: make([]int, n),
		live:    n,
	}
	for i := range groups {
		m.alive[i] = true
		for j := i + 1; j < n; j++ {
			d := Distance(groups[i].centroid, groups[j].centroid)
			m.dist[i*n+j] = d
			m.dist[j*n+i] = d
		}
	}
	for i := range groups {
		m.refreshNearest(i)
	}
	return m
}

func (m *merger) distance(i, j int) float64 {
	return m.dist[i*len(m.groups)+j]
}

func (m *merger) setDistance(i, j int, d float64) {
	n := len(m.groups)
	m.dist[i*n+j] = d
	m.dist[j*n+i] = d
}

// closer reports whether pair (a, b) beats pair (c, d). Distances within
// tieEpsilonKm are equal; the smaller combined lowest id then wins, then the
// other lowest id.
func (m *merger) closer(a, b, c, d int) bool {
	d1, d2 := m.distance(a, b), m.distance(c, d)
	if d1 < d2-tieEpsilonKm {
		return true
	}
	if math.Abs(d1-d2) > tieEpsilonKm {
		return false
	}
	low1, high1 := m.pairIDs(a, b)
	low2, high2 := m.pairIDs(c, d)
	return low1 < low2 || (low1 == low2 && high1 < high2)
}

func (m *merger) pairIDs(i, j int) (int64, int64) {
	low, high := m.groups[i].minID(), m.groups[j].minID()
	if low > high {
		low, high = high, low
	}
	return low, high
}

func (m *merger) refreshNearest(i int) {
	best := -1
	for j := range m.groups {
		if j == i || !m.alive[j] {
			continue
		}
		if best < 0 || m.closer(i, j, i, best) {
			best = j
		}
	}
	m.nearest[i] = best
}

// closestPair returns the winning pair as (lower slot, higher slot).
func (m *merger) closestPair() (int, int, float64, bool) {
	if m.live < 2 {
		return 0, 0, 0, false
	}
	bestI, bestJ := -1, -1
	for i, j := range m.nearest {
		if !m.alive[i] || j < 0 {
			continue
		}
		if bestI < 0 || m.closer(i, j, bestI, bestJ) {
			bestI, bestJ = i, j
		}
	}
	if bestI > bestJ {
		bestI, bestJ = bestJ, bestI
	}
	return bestI, bestJ, m.distance(bestI, bestJ), true
}

// merge folds slot j into slot i (i < j). Only the merged row of the
// distance matrix is recomputed.
func (m *merger) merge(i, j int, forced bool) {
	a, b := m.groups[i], m.groups[j]
	ids := append(slices.Clone(a.ids), b.ids...)
	slices.Sort(ids)
	points := append(slices.Clone(a.points), b.points...)
	m.groups[i] = group{
		ids:      ids,
		points:   points,
		centroid: Centroid(points),
		forced:   a.forced || b.forced || forced,
	}
	m.groups[j] = group{}
	m.alive[j] = false
	m.nearest[j] = -1
	m.live--

	for k := range m.groups {
		if k == i || !m.alive[k] {
			continue
		}
		m.setDistance(i, k, Distance(m.groups[i].centroid, m.groups[k].centroid))
	}
	m.refreshNearest(i)
	for k := range m.groups {
		if k == i || !m.alive[k] {
			continue
		}
		switch nk := m.nearest[k]; {
		case nk < 0 || nk == i || nk == j:
			m.refreshNearest(k)
		case m.closer(k, i, k, nk):
			m.nearest[k] = i
		}
	}
}

func (m *merger) remaining() []group {
	out := make([]group, 0, m.live)
	for i, g := range m.groups {
		if m.alive[i] {
			out = append(out, g)
		}
	}
	return out
}

// visitOrder chains clusters nearest-neighbour first, starting from the
// cluster holding the lowest suggestion id.
func visitOrder(groups []group) []group {
	remaining := slices.Clone(groups)
	slices.SortFunc(remaining, func(a, b group) int {
		return cmp.Compare(a.minID(), b.minID())
	})
	ordered := make([]group, 0, len(remaining))
	for len(remaining) > 0 {
		next := 0
		if len(ordered) > 0 {
			from := ordered[len(ordered)-1].centroid
			bestD := math.Inf(1)
			for k, g := range remaining {
				d := Distance(from, g.centroid)
				if d < bestD-tieEpsilonKm {
					next, bestD = k, d
				}
			}
		}
		ordered = append(ordered, remaining[next])
		remaining = slices.Delete(remaining, next, next+1)
	}
	return ordered
}
