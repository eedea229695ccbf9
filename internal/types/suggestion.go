package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Suggestion is a candidate point of interest or accommodation for a trip.
// The engine treats it as read-only input.
type Suggestion struct {
	ID              int64           `json:"id"`
	TripID          uuid.UUID       `json:"tripId"`
	Name            string          `json:"name,omitempty"`
	Latitude        float64         `json:"lat"`
	Longitude       float64         `json:"lon"`
	Category        string          `json:"category"`
	DurationMinutes int             `json:"durationMinutes"`
	PriceLocal      decimal.Decimal `json:"priceLocal"`
	CurrencyCode    string          `json:"currencyCode,omitempty"`
	IsAccommodation bool            `json:"isAccommodation"`
}

func (s Suggestion) Coordinates() Coordinates {
	return Coordinates{Latitude: s.Latitude, Longitude: s.Longitude}
}

// Currency returns the currency priceLocal is expressed in, defaulting to the
// trip's destination currency when the read model leaves it blank.
func (s Suggestion) Currency(trip TripConfig) string {
	if s.CurrencyCode != "" {
		return strings.ToUpper(s.CurrencyCode)
	}
	return strings.ToUpper(trip.DestinationCurrency)
}

// TripConfig is the trip read model handed to the engine.
type TripConfig struct {
	ID                  uuid.UUID  `json:"id"`
	DurationDays        int        `json:"durationDays"`
	StartDate           *time.Time `json:"startDate,omitempty"`
	EndDate             *time.Time `json:"endDate,omitempty"`
	DestinationCurrency string     `json:"destinationCurrency"`
	DisplayCurrency     string     `json:"displayCurrency,omitempty"`
}

// DayDate returns the calendar date of a 1-based day number, or nil when the
// trip has no start date.
func (t TripConfig) DayDate(dayNumber int) *time.Time {
	if t.StartDate == nil {
		return nil
	}
	d := t.StartDate.AddDate(0, 0, dayNumber-1)
	return &d
}

// SplitAccommodation separates activities from accommodation candidates,
// preserving input order.
func SplitAccommodation(suggestions []Suggestion) (activities, accommodation []Suggestion) {
	for _, s := range suggestions {
		if s.IsAccommodation {
			accommodation = append(accommodation, s)
		} else {
			activities = append(activities, s)
		}
	}
	return activities, accommodation
}
