package types

import (
	"time"

	"github.com/google/uuid"
)

// Cluster is a geography-bounded group of activities assigned to one day.
// An empty cluster represents a free day.
type Cluster struct {
	Index         int         `json:"index"`
	SuggestionIDs []int64     `json:"suggestionIds"`
	Centroid      Coordinates `json:"centroid"`
	// LongTransfer is set when the cluster was produced by a merge beyond the
	// clustering radius.
	LongTransfer bool `json:"longTransfer"`
}

func (c Cluster) Empty() bool {
	return len(c.SuggestionIDs) == 0
}

type ActivityAssignment struct {
	SuggestionID int64 `json:"suggestionId"`
	DayNumber    int   `json:"dayNumber"`
	OrderInDay   int   `json:"orderInDay"`
}

type DayPlan struct {
	DayNumber    int                  `json:"dayNumber"`
	Date         *time.Time           `json:"date,omitempty"`
	Activities   []ActivityAssignment `json:"activities"`
	LongTransfer bool                 `json:"longTransfer"`
	FreeDay      bool                 `json:"freeDay"`
	Weather      *WeatherSample       `json:"weather,omitempty"`
}

// HotelStay binds one accommodation to the inclusive day span StartDay..EndDay.
type HotelStay struct {
	HotelSuggestionID int64 `json:"hotelSuggestionId"`
	StartDay          int   `json:"startDay"`
	EndDay            int   `json:"endDay"`
}

type HotelAssignment struct {
	Stays         []HotelStay `json:"hotelStays"`
	UncoveredDays []int       `json:"uncoveredDays"`
}

// Plan is the generated itinerary for a trip. Version is the optimistic
// concurrency token of the stored copy; zero means never stored.
type Plan struct {
	TripID        uuid.UUID   `json:"tripId"`
	Version       int64       `json:"version"`
	Days          []DayPlan   `json:"days"`
	HotelStays    []HotelStay `json:"hotelStays"`
	UncoveredDays []int       `json:"uncoveredDays"`
	GeneratedAt   time.Time   `json:"generatedAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// ScheduledIDs returns every suggestion id placed on some day of the plan.
func (p Plan) ScheduledIDs() map[int64]struct{} {
	ids := make(map[int64]struct{})
	for _, d := range p.Days {
		for _, a := range d.Activities {
			ids[a.SuggestionID] = struct{}{}
		}
	}
	return ids
}

// ReorderRequest replaces the day/order mapping of every scheduled activity.
type ReorderRequest struct {
	Days []ReorderDay `json:"days"`
}

type ReorderDay struct {
	DayNumber  int               `json:"dayNumber"`
	Activities []ReorderActivity `json:"activities"`
}

type ReorderActivity struct {
	SuggestionID int64 `json:"suggestionId"`
	OrderInDay   int   `json:"orderInDay"`
}
