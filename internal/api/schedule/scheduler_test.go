package schedule

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

func s(id int64, category string) types.Suggestion {
	return types.Suggestion{ID: id, Category: category}
}

func ids(day types.DayPlan) []int64 {
	out := make([]int64, len(day.Activities))
	for i, a := range day.Activities {
		out[i] = a.SuggestionID
	}
	return out
}

func TestSchedule(t *testing.T) {
	suggestions := []types.Suggestion{
		s(1, "museum"),
		s(2, "restaurant"),
		s(3, "park"),
		s(4, "bar"),
		s(5, "Landmark"),
		s(6, "cafe"),
		s(7, "shopping"),
		{ID: 8, Category: "hotel", IsAccommodation: true},
		s(9, "museum"),
	}
	clusters := []types.Cluster{
		{Index: 0, SuggestionIDs: []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{Index: 1, SuggestionIDs: []int64{9}, LongTransfer: true},
		{Index: 2, SuggestionIDs: []int64{}},
	}
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	days := Schedule(clusters, suggestions, 3, &start)
	require.Len(t, days, 3)

	t.Run("meals interleave and nightlife closes the day", func(t *testing.T) {
		// daytime: 1,5 (sights) 3 (park) 7 (shopping); lunch 2; dinner 6; bar 4
		assert.Equal(t, []int64{1, 5, 2, 3, 7, 6, 4}, ids(days[0]))
	})

	t.Run("accommodation is not an activity", func(t *testing.T) {
		assert.NotContains(t, ids(days[0]), int64(8))
	})

	t.Run("day metadata", func(t *testing.T) {
		assert.Equal(t, 1, days[0].DayNumber)
		assert.Equal(t, start, *days[0].Date)
		assert.Equal(t, start.AddDate(0, 0, 2), *days[2].Date)
		assert.True(t, days[1].LongTransfer)
		assert.False(t, days[0].FreeDay)
		assert.True(t, days[2].FreeDay)
		assert.Empty(t, days[2].Activities)
	})

	t.Run("no start date leaves dates empty", func(t *testing.T) {
		undated := Schedule(clusters, suggestions, 3, nil)
		assert.Nil(t, undated[0].Date)
	})
}

func TestSchedule_PlanShape(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	categories := []string{"museum", "restaurant", "park", "bar", "cafe", "unknown"}

	for trial := 0; trial < 50; trial++ {
		duration := 1 + rng.Intn(6)
		nClusters := 1 + rng.Intn(duration+2)
		var suggestions []types.Suggestion
		clusters := make([]types.Cluster, nClusters)
		next := int64(1)
		for c := range clusters {
			clusters[c].Index = c
			for k := rng.Intn(6); k > 0; k-- {
				suggestions = append(suggestions, s(next, categories[rng.Intn(len(categories))]))
				clusters[c].SuggestionIDs = append(clusters[c].SuggestionIDs, next)
				next++
			}
		}

		days := Schedule(clusters, suggestions, duration, nil)
		require.Len(t, days, duration)

		placed := 0
		for _, d := range days {
			orders := make(map[int]bool)
			for _, a := range d.Activities {
				require.GreaterOrEqual(t, a.DayNumber, 1)
				require.LessOrEqual(t, a.DayNumber, duration)
				require.Equal(t, d.DayNumber, a.DayNumber)
				orders[a.OrderInDay] = true
			}
			for k := 0; k < len(d.Activities); k++ {
				require.True(t, orders[k], "day %d missing order %d", d.DayNumber, k)
			}
			placed += len(d.Activities)
		}
		require.Equal(t, len(suggestions), placed)
	}
}

func scheduledPlan() types.Plan {
	return types.Plan{
		Version: 3,
		Days: []types.DayPlan{
			{DayNumber: 1, Activities: []types.ActivityAssignment{
				{SuggestionID: 1, DayNumber: 1, OrderInDay: 0},
				{SuggestionID: 2, DayNumber: 1, OrderInDay: 1},
			}},
			{DayNumber: 2, Activities: []types.ActivityAssignment{
				{SuggestionID: 3, DayNumber: 2, OrderInDay: 0},
			}},
		},
		HotelStays:    []types.HotelStay{{HotelSuggestionID: 9, StartDay: 1, EndDay: 2}},
		UncoveredDays: []int{},
	}
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verr *types.ValidationError
	require.True(t, errors.As(err, &verr))
	require.ErrorIs(t, err, types.ErrValidation)
	out := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		out[i] = f.Field
	}
	return out
}

func TestReorder(t *testing.T) {
	t.Run("moves activities across days", func(t *testing.T) {
		current := scheduledPlan()
		next, err := Reorder(current, types.ReorderRequest{Days: []types.ReorderDay{
			{DayNumber: 1, Activities: []types.ReorderActivity{{SuggestionID: 2, OrderInDay: 0}}},
			{DayNumber: 2, Activities: []types.ReorderActivity{
				{SuggestionID: 1, OrderInDay: 1},
				{SuggestionID: 3, OrderInDay: 0},
			}},
		}})
		require.NoError(t, err)

		assert.Equal(t, []int64{2}, ids(next.Days[0]))
		assert.Equal(t, []int64{3, 1}, ids(next.Days[1]))
		assert.Equal(t, 2, next.Days[1].Activities[1].DayNumber)
		assert.Equal(t, current.HotelStays, next.HotelStays)
		assert.Equal(t, current.Version, next.Version)

		// the input plan is untouched
		assert.Equal(t, []int64{1, 2}, ids(current.Days[0]))
	})

	t.Run("days left out become free days", func(t *testing.T) {
		next, err := Reorder(scheduledPlan(), types.ReorderRequest{Days: []types.ReorderDay{
			{DayNumber: 2, Activities: []types.ReorderActivity{
				{SuggestionID: 1, OrderInDay: 0},
				{SuggestionID: 2, OrderInDay: 1},
				{SuggestionID: 3, OrderInDay: 2},
			}},
		}})
		require.NoError(t, err)
		assert.True(t, next.Days[0].FreeDay)
		assert.Empty(t, next.Days[0].Activities)
		assert.Equal(t, []int64{1, 2, 3}, ids(next.Days[1]))
	})

	t.Run("empty day list", func(t *testing.T) {
		_, err := Reorder(scheduledPlan(), types.ReorderRequest{})
		assert.Equal(t, []string{"days"}, fieldsOf(t, err))
	})

	t.Run("unknown suggestion is rejected in full", func(t *testing.T) {
		current := scheduledPlan()
		next, err := Reorder(current, types.ReorderRequest{Days: []types.ReorderDay{
			{DayNumber: 1, Activities: []types.ReorderActivity{
				{SuggestionID: 1, OrderInDay: 0},
				{SuggestionID: 2, OrderInDay: 1},
				{SuggestionID: 42, OrderInDay: 2},
			}},
			{DayNumber: 2, Activities: []types.ReorderActivity{{SuggestionID: 3, OrderInDay: 0}}},
		}})
		assert.Equal(t, []string{"days[0].activities[2].suggestionId"}, fieldsOf(t, err))
		assert.Empty(t, next.Days)
		assert.Equal(t, []int64{1, 2}, ids(current.Days[0]))
	})

	t.Run("dropped suggestion", func(t *testing.T) {
		_, err := Reorder(scheduledPlan(), types.ReorderRequest{Days: []types.ReorderDay{
			{DayNumber: 1, Activities: []types.ReorderActivity{{SuggestionID: 1, OrderInDay: 0}}},
			{DayNumber: 2, Activities: []types.ReorderActivity{{SuggestionID: 3, OrderInDay: 0}}},
		}})
		assert.Equal(t, []string{"days"}, fieldsOf(t, err))
	})

	t.Run("duplicate suggestion", func(t *testing.T) {
		_, err := Reorder(scheduledPlan(), types.ReorderRequest{Days: []types.ReorderDay{
			{DayNumber: 1, Activities: []types.ReorderActivity{
				{SuggestionID: 1, OrderInDay: 0},
				{SuggestionID: 2, OrderInDay: 1},
			}},
			{DayNumber: 2, Activities: []types.ReorderActivity{
				{SuggestionID: 3, OrderInDay: 0},
				{SuggestionID: 1, OrderInDay: 1},
			}},
		}})
		assert.Equal(t, []string{"days[1].activities[1].suggestionId"}, fieldsOf(t, err))
	})

	t.Run("order must be a dense permutation", func(t *testing.T) {
		_, err := Reorder(scheduledPlan(), types.ReorderRequest{Days: []types.ReorderDay{
			{DayNumber: 1, Activities: []types.ReorderActivity{
				{SuggestionID: 1, OrderInDay: 0},
				{SuggestionID: 2, OrderInDay: 2},
			}},
			{DayNumber: 2, Activities: []types.ReorderActivity{
				{SuggestionID: 3, OrderInDay: 0},
			}},
		}})
		assert.Equal(t, []string{"days[0].activities[1].orderInDay"}, fieldsOf(t, err))

		_, err = Reorder(scheduledPlan(), types.ReorderRequest{Days: []types.ReorderDay{
			{DayNumber: 1, Activities: []types.ReorderActivity{
				{SuggestionID: 1, OrderInDay: 1},
				{SuggestionID: 2, OrderInDay: 1},
			}},
			{DayNumber: 2, Activities: []types.ReorderActivity{
				{SuggestionID: 3, OrderInDay: 0},
			}},
		}})
		assert.Equal(t, []string{"days[0].activities[1].orderInDay"}, fieldsOf(t, err))
	})

	t.Run("day numbers must be in range and unique", func(t *testing.T) {
		_, err := Reorder(scheduledPlan(), types.ReorderRequest{Days: []types.ReorderDay{
			{DayNumber: 3, Activities: []types.ReorderActivity{{SuggestionID: 1, OrderInDay: 0}}},
			{DayNumber: 1, Activities: []types.ReorderActivity{{SuggestionID: 2, OrderInDay: 0}}},
			{DayNumber: 1, Activities: []types.ReorderActivity{{SuggestionID: 3, OrderInDay: 0}}},
		}})
		assert.Equal(t, []string{"days[0].dayNumber", "days[2].dayNumber"}, fieldsOf(t, err))
	})
}
