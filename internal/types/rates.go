package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rate sources reported on ExchangeRate.Source.
const (
	RateSourceIdentity = "identity"
	RateSourceUpstream = "ecb"
	RateSourceFallback = "static"
)

// ExchangeRate is one cached reference rate: 1 Base = Rate Quote on Date.
type ExchangeRate struct {
	Date        time.Time       `json:"date"`
	Base        string          `json:"base"`
	Quote       string          `json:"quote"`
	Rate        decimal.Decimal `json:"rate"`
	FetchedAt   time.Time       `json:"fetchedAt"`
	Source      string          `json:"source"`
	Approximate bool            `json:"approximate"`
}

type Conversion struct {
	Amount      decimal.Decimal `json:"amount"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Date        time.Time       `json:"date"`
	Rate        decimal.Decimal `json:"rate"`
	Converted   decimal.Decimal `json:"converted"`
	Source      string          `json:"source"`
	Approximate bool            `json:"approximate"`
}
