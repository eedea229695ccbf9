package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DailyTotal struct {
	DayNumber              int             `json:"dayNumber"`
	Date                   time.Time       `json:"date"`
	TotalInDisplayCurrency decimal.Decimal `json:"totalInDisplayCurrency"`
}

// Budget is derived on read from a plan; it is never persisted.
type Budget struct {
	TripID                 uuid.UUID       `json:"tripId"`
	DailyTotals            []DailyTotal    `json:"dailyTotals"`
	TotalInDisplayCurrency decimal.Decimal `json:"totalInDisplayCurrency"`
	Currency               string          `json:"currency"`
	CurrencySymbol         string          `json:"currencySymbol"`
	Approximate            bool            `json:"approximate"`
}
