package schedule

import (
	"fmt"
	"slices"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// Reorder validates a full replacement of the day/order mapping against the
// current plan and returns a new plan. The current plan is never modified; on
// any violation the returned error is a *types.ValidationError listing every
// offending field and no plan is produced.
func Reorder(current types.Plan, req types.ReorderRequest) (types.Plan, error) {
	verr := ValidateReorder(current, req)
	if verr.HasErrors() {
		return types.Plan{}, verr
	}

	byDay := make(map[int][]types.ReorderActivity, len(req.Days))
	for _, d := range req.Days {
		byDay[d.DayNumber] = d.Activities
	}

	next := current
	next.Days = make([]types.DayPlan, len(current.Days))
	for i, old := range current.Days {
		day := old
		day.Activities = []types.ActivityAssignment{}
		acts := slices.Clone(byDay[old.DayNumber])
		slices.SortFunc(acts, func(a, b types.ReorderActivity) int { return a.OrderInDay - b.OrderInDay })
		for _, a := range acts {
			day.Activities = append(day.Activities, types.ActivityAssignment{
				SuggestionID: a.SuggestionID,
				DayNumber:    old.DayNumber,
				OrderInDay:   a.OrderInDay,
			})
		}
		day.FreeDay = len(day.Activities) == 0
		next.Days[i] = day
	}
	next.HotelStays = slices.Clone(current.HotelStays)
	next.UncoveredDays = slices.Clone(current.UncoveredDays)
	return next, nil
}

// ValidateReorder checks a reorder payload: a non-empty day list, day numbers
// within the trip and not repeated, exactly the currently scheduled suggestion
// set, and a dense 0-based orderInDay permutation per day.
func ValidateReorder(current types.Plan, req types.ReorderRequest) *types.ValidationError {
	verr := &types.ValidationError{}
	if len(req.Days) == 0 {
		verr.Add("days", "must contain at least one day")
		return verr
	}

	durationDays := len(current.Days)
	scheduled := current.ScheduledIDs()
	seenDays := make(map[int]int)
	seenIDs := make(map[int64]string)

	for i, d := range req.Days {
		dayField := fmt.Sprintf("days[%d]", i)
		if d.DayNumber < 1 || d.DayNumber > durationDays {
			verr.Add(dayField+".dayNumber", fmt.Sprintf("must be between 1 and %d", durationDays))
		} else if prev, dup := seenDays[d.DayNumber]; dup {
			verr.Add(dayField+".dayNumber", fmt.Sprintf("day %d already given at days[%d]", d.DayNumber, prev))
		} else {
			seenDays[d.DayNumber] = i
		}

		orders := make(map[int]bool, len(d.Activities))
		for j, a := range d.Activities {
			actField := fmt.Sprintf("%s.activities[%d]", dayField, j)
			if _, ok := scheduled[a.SuggestionID]; !ok {
				verr.Add(actField+".suggestionId", fmt.Sprintf("suggestion %d is not scheduled on this trip", a.SuggestionID))
			} else if prev, dup := seenIDs[a.SuggestionID]; dup {
				verr.Add(actField+".suggestionId", fmt.Sprintf("suggestion %d already placed at %s", a.SuggestionID, prev))
			} else {
				seenIDs[a.SuggestionID] = actField
			}

			switch {
			case a.OrderInDay < 0 || a.OrderInDay >= len(d.Activities):
				verr.Add(actField+".orderInDay", fmt.Sprintf("must be between 0 and %d", len(d.Activities)-1))
			case orders[a.OrderInDay]:
				verr.Add(actField+".orderInDay", fmt.Sprintf("order %d is repeated", a.OrderInDay))
			default:
				orders[a.OrderInDay] = true
			}
		}
	}

	var missing []int64
	for id := range scheduled {
		if _, ok := seenIDs[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		verr.Add("days", fmt.Sprintf("missing scheduled suggestions %v", missing))
	}
	return verr
}
