package budget

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// DefaultCurrency is used when neither the request nor the trip names a
// display currency.
const DefaultCurrency = "EUR"

var symbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"CHF": "CHF",
	"AUD": "A$",
	"CAD": "C$",
	"NZD": "NZ$",
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
	"PLN": "zł",
	"CZK": "Kč",
	"HUF": "Ft",
	"TRY": "₺",
	"INR": "₹",
	"KRW": "₩",
	"THB": "฿",
	"ILS": "₪",
	"BRL": "R$",
	"MXN": "MX$",
	"ZAR": "R",
	"SGD": "S$",
	"HKD": "HK$",
}

// Symbol returns the display symbol of a currency, or the code itself.
func Symbol(code string) string {
	code = strings.ToUpper(code)
	if s, ok := symbols[code]; ok {
		return s
	}
	return code
}

type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, onDate time.Time) (types.Conversion, error)
}

// Aggregator derives a budget from a finished plan. It holds no state beyond
// its collaborators.
type Aggregator struct {
	rates Converter
	now   func() time.Time
}

func NewAggregator(rates Converter, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{rates: rates, now: now}
}

// Aggregate converts every scheduled activity's price to displayCurrency at
// the rate of its day and sums per day and overall. Hotel stays are not
// counted. The budget is approximate when any conversion was.
func (a *Aggregator) Aggregate(ctx context.Context, plan types.Plan, suggestions []types.Suggestion, trip types.TripConfig, displayCurrency string) (types.Budget, error) {
	currency := strings.ToUpper(strings.TrimSpace(displayCurrency))
	if currency == "" {
		currency = strings.ToUpper(trip.DisplayCurrency)
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	byID := make(map[int64]types.Suggestion, len(suggestions))
	for _, s := range suggestions {
		byID[s.ID] = s
	}

	out := types.Budget{
		TripID:                 trip.ID,
		DailyTotals:            make([]types.DailyTotal, 0, len(plan.Days)),
		TotalInDisplayCurrency: decimal.Zero,
		Currency:               currency,
		CurrencySymbol:         Symbol(currency),
	}
	for _, day := range plan.Days {
		date := a.dayDate(day, trip)
		total := decimal.Zero
		for _, act := range day.Activities {
			s, ok := byID[act.SuggestionID]
			if !ok || s.PriceLocal.IsZero() {
				continue
			}
			conv, err := a.rates.Convert(ctx, s.PriceLocal, s.Currency(trip), currency, date)
			if err != nil {
				return types.Budget{}, fmt.Errorf("failed to convert suggestion %d: %w", s.ID, err)
			}
			total = total.Add(conv.Converted)
			out.Approximate = out.Approximate || conv.Approximate
		}
		out.DailyTotals = append(out.DailyTotals, types.DailyTotal{
			DayNumber:              day.DayNumber,
			Date:                   date,
			TotalInDisplayCurrency: total,
		})
		out.TotalInDisplayCurrency = out.TotalInDisplayCurrency.Add(total)
	}
	return out, nil
}

// dayDate is startDate + dayNumber - 1, or today when the trip is undated.
// The trip is authoritative; dates stamped on a stored plan may be stale.
func (a *Aggregator) dayDate(day types.DayPlan, trip types.TripConfig) time.Time {
	if d := trip.DayDate(day.DayNumber); d != nil {
		return *d
	}
	y, m, d := a.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
