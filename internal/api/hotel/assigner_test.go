package hotel

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var (
	paris = types.Coordinates{Latitude: 48.8566, Longitude: 2.3522}
	lille = types.Coordinates{Latitude: 50.6292, Longitude: 3.0573}
	lyon  = types.Coordinates{Latitude: 45.7640, Longitude: 4.8357}
)

func day(idx int, c types.Coordinates) types.Cluster {
	return types.Cluster{Index: idx, SuggestionIDs: []int64{int64(100 + idx)}, Centroid: c}
}

func freeDay(idx int) types.Cluster {
	return types.Cluster{Index: idx, SuggestionIDs: []int64{}}
}

func hotelAt(id int64, c types.Coordinates, price string) types.Suggestion {
	return types.Suggestion{
		ID:              id,
		Latitude:        c.Latitude + 0.01,
		Longitude:       c.Longitude + 0.01,
		Category:        "hotel",
		PriceLocal:      decimal.RequireFromString(price),
		IsAccommodation: true,
	}
}

func TestAssigner_Assign(t *testing.T) {
	a := NewAssigner(DefaultSearchRadiusKm, nil)

	t.Run("one hotel covers consecutive days in the same area", func(t *testing.T) {
		res := a.Assign(
			[]types.Cluster{day(0, paris), day(1, paris), day(2, paris)},
			[]types.Suggestion{hotelAt(10, paris, "120")},
		)
		assert.Equal(t, []types.HotelStay{{HotelSuggestionID: 10, StartDay: 1, EndDay: 3}}, res.Stays)
		assert.Empty(t, res.UncoveredDays)
	})

	t.Run("changing area closes the span", func(t *testing.T) {
		res := a.Assign(
			[]types.Cluster{day(0, paris), day(1, paris), day(2, lille)},
			[]types.Suggestion{hotelAt(10, paris, "120"), hotelAt(20, lille, "80")},
		)
		assert.Equal(t, []types.HotelStay{
			{HotelSuggestionID: 10, StartDay: 1, EndDay: 2},
			{HotelSuggestionID: 20, StartDay: 3, EndDay: 3},
		}, res.Stays)
	})

	t.Run("cheapest candidate wins, then lowest id", func(t *testing.T) {
		res := a.Assign(
			[]types.Cluster{day(0, paris)},
			[]types.Suggestion{hotelAt(12, paris, "90"), hotelAt(11, paris, "150"), hotelAt(13, paris, "90")},
		)
		require.Len(t, res.Stays, 1)
		assert.Equal(t, int64(12), res.Stays[0].HotelSuggestionID)
	})

	t.Run("price function drives the tie-break", func(t *testing.T) {
		inverted := NewAssigner(DefaultSearchRadiusKm, func(s types.Suggestion) decimal.Decimal {
			return s.PriceLocal.Neg()
		})
		res := inverted.Assign(
			[]types.Cluster{day(0, paris)},
			[]types.Suggestion{hotelAt(12, paris, "90"), hotelAt(11, paris, "150")},
		)
		require.Len(t, res.Stays, 1)
		assert.Equal(t, int64(11), res.Stays[0].HotelSuggestionID)
	})

	t.Run("day without accommodation in range is uncovered", func(t *testing.T) {
		res := a.Assign(
			[]types.Cluster{day(0, paris), day(1, lyon), day(2, paris)},
			[]types.Suggestion{hotelAt(10, paris, "120")},
		)
		assert.Equal(t, []types.HotelStay{
			{HotelSuggestionID: 10, StartDay: 1, EndDay: 1},
			{HotelSuggestionID: 10, StartDay: 3, EndDay: 3},
		}, res.Stays)
		assert.Equal(t, []int{2}, res.UncoveredDays)
	})

	t.Run("free days join the surrounding span", func(t *testing.T) {
		res := a.Assign(
			[]types.Cluster{freeDay(0), day(1, paris), freeDay(2), day(3, paris)},
			[]types.Suggestion{hotelAt(10, paris, "120")},
		)
		assert.Equal(t, []types.HotelStay{{HotelSuggestionID: 10, StartDay: 1, EndDay: 4}}, res.Stays)
		assert.Empty(t, res.UncoveredDays)
	})

	t.Run("trip without activities is uncovered", func(t *testing.T) {
		res := a.Assign(
			[]types.Cluster{freeDay(0), freeDay(1)},
			[]types.Suggestion{hotelAt(10, paris, "120")},
		)
		assert.Empty(t, res.Stays)
		assert.Equal(t, []int{1, 2}, res.UncoveredDays)
	})

	t.Run("non accommodation candidates are ignored", func(t *testing.T) {
		museum := hotelAt(10, paris, "10")
		museum.IsAccommodation = false
		res := a.Assign([]types.Cluster{day(0, paris)}, []types.Suggestion{museum})
		assert.Empty(t, res.Stays)
		assert.Equal(t, []int{1}, res.UncoveredDays)
	})
}

func TestAssigner_StaysAreDisjointAndOrdered(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := NewAssigner(DefaultSearchRadiusKm, nil)
	areas := []types.Coordinates{paris, lille, lyon}

	for trial := 0; trial < 100; trial++ {
		days := 1 + rng.Intn(12)
		clusters := make([]types.Cluster, days)
		for i := range clusters {
			if rng.Intn(5) == 0 {
				clusters[i] = freeDay(i)
				continue
			}
			clusters[i] = day(i, areas[rng.Intn(len(areas))])
		}
		var hotels []types.Suggestion
		for i, area := range areas {
			if rng.Intn(3) > 0 {
				hotels = append(hotels, hotelAt(int64(10+i), area, "100"))
			}
		}

		res := a.Assign(clusters, hotels)

		covered := make(map[int]bool)
		prevEnd := 0
		for _, s := range res.Stays {
			require.LessOrEqual(t, s.StartDay, s.EndDay)
			require.Greater(t, s.StartDay, prevEnd)
			require.GreaterOrEqual(t, s.StartDay, 1)
			require.LessOrEqual(t, s.EndDay, days)
			for d := s.StartDay; d <= s.EndDay; d++ {
				covered[d] = true
			}
			prevEnd = s.EndDay
		}
		for _, d := range res.UncoveredDays {
			require.False(t, covered[d], "day %d both covered and uncovered", d)
		}
		require.Equal(t, days, len(covered)+len(res.UncoveredDays))
	}
}
