package schedule

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Category buckets in the order they are visited during a day. Meals are not
// a bucket: they are interleaved at lunch and dinner positions.
const (
	bucketSights = iota
	bucketOutdoors
	bucketShopping
	bucketOther
	bucketNightlife
)

var categoryBuckets = map[string]int{
	"sightseeing":   bucketSights,
	"landmark":      bucketSights,
	"museum":        bucketSights,
	"monument":      bucketSights,
	"culture":       bucketSights,
	"historic":      bucketSights,
	"attraction":    bucketSights,
	"park":          bucketOutdoors,
	"nature":        bucketOutdoors,
	"beach":         bucketOutdoors,
	"hike":          bucketOutdoors,
	"outdoor":       bucketOutdoors,
	"shopping":      bucketShopping,
	"market":        bucketShopping,
	"nightlife":     bucketNightlife,
	"bar":           bucketNightlife,
	"club":          bucketNightlife,
	"entertainment": bucketNightlife,
	"show":          bucketNightlife,
}

var mealCategories = map[string]bool{
	"restaurant":  true,
	"food":        true,
	"meal":        true,
	"cafe":        true,
	"bakery":      true,
	"breakfast":   true,
	"lunch":       true,
	"dinner":      true,
	"street_food": true,
}

func normaliseCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// IsMeal reports whether a category is a meal-type category.
func IsMeal(category string) bool {
	return mealCategories[normaliseCategory(category)]
}

func bucketOf(category string) int {
	if b, ok := categoryBuckets[normaliseCategory(category)]; ok {
		return b
	}
	return bucketOther
}

// Schedule maps clusters onto day numbers 1..durationDays in cluster order and
// orders each day's activities. Accommodation is left out; it is represented
// by hotel stays. Clusters beyond durationDays are folded into the last day.
func Schedule(clusters []types.Cluster, suggestions []types.Suggestion, durationDays int, startDate *time.Time) []types.DayPlan {
	if durationDays < 1 {
		durationDays = 1
	}
	byID := make(map[int64]types.Suggestion, len(suggestions))
	for _, s := range suggestions {
		byID[s.ID] = s
	}

	days := make([]types.DayPlan, durationDays)
	members := make([][]types.Suggestion, durationDays)
	for i := range days {
		days[i] = types.DayPlan{DayNumber: i + 1, Activities: []types.ActivityAssignment{}}
		if startDate != nil {
			d := startDate.AddDate(0, 0, i)
			days[i].Date = &d
		}
	}

	for i, cl := range clusters {
		idx := min(i, durationDays-1)
		days[idx].LongTransfer = days[idx].LongTransfer || cl.LongTransfer
		for _, id := range cl.SuggestionIDs {
			s, ok := byID[id]
			if !ok || s.IsAccommodation {
				continue
			}
			members[idx] = append(members[idx], s)
		}
	}

	for i := range days {
		for order, s := range orderDay(members[i]) {
			days[i].Activities = append(days[i].Activities, types.ActivityAssignment{
				SuggestionID: s.ID,
				DayNumber:    i + 1,
				OrderInDay:   order,
			})
		}
		days[i].FreeDay = len(days[i].Activities) == 0
	}
	return days
}

// orderDay sorts daytime activities by bucket then id, places the first meal
// after the morning half and the remaining meals after the afternoon, and
// ends the day with nightlife.
func orderDay(activities []types.Suggestion) []types.Suggestion {
	var daytime, meals, night []types.Suggestion
	for _, s := range activities {
		switch {
		case IsMeal(s.Category):
			meals = append(meals, s)
		case bucketOf(s.Category) == bucketNightlife:
			night = append(night, s)
		default:
			daytime = append(daytime, s)
		}
	}
	slices.SortFunc(daytime, func(a, b types.Suggestion) int {
		if c := cmp.Compare(bucketOf(a.Category), bucketOf(b.Category)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	byID := func(a, b types.Suggestion) int { return cmp.Compare(a.ID, b.ID) }
	slices.SortFunc(meals, byID)
	slices.SortFunc(night, byID)

	out := make([]types.Suggestion, 0, len(activities))
	morning := (len(daytime) + 1) / 2
	out = append(out, daytime[:morning]...)
	if len(meals) > 0 {
		out = append(out, meals[0])
	}
	out = append(out, daytime[morning:]...)
	if len(meals) > 1 {
		out = append(out, meals[1:]...)
	}
	return append(out, night...)
}
