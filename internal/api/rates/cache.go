package rates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const (
	DefaultTTL            = 24 * time.Hour
	DefaultFetchTimeout   = 3 * time.Second
	DefaultFailureBackoff = time.Minute

	dateLayout = "2006-01-02"
)

var cacheAttr = metric.WithAttributes(attribute.String("cache", "rates"))

// Fetcher returns the reference rate for 1 unit of from expressed in to on a
// given date.
type Fetcher interface {
	FetchRate(ctx context.Context, date time.Time, from, to string) (decimal.Decimal, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, date time.Time, from, to string) (decimal.Decimal, error)

func (f FetcherFunc) FetchRate(ctx context.Context, date time.Time, from, to string) (decimal.Decimal, error) {
	return f(ctx, date, from, to)
}

// Store is an optional durable tier consulted before the upstream source.
type Store interface {
	Get(ctx context.Context, key string) (*types.ExchangeRate, error)
	Set(ctx context.Context, key string, value types.ExchangeRate, ttl time.Duration) error
}

type Config struct {
	TTL            time.Duration
	FetchTimeout   time.Duration
	FailureBackoff time.Duration
	// Now is the clock used to judge freshness. Defaults to time.Now.
	Now func() time.Time
}

// Cache holds exchange rates keyed by (date, from, to). A rate is served from
// memory while it is younger than the TTL; otherwise one refresh per key runs
// at a time and every waiter gets its result. Upstream failures never reach
// the caller: the bundled table answers instead and the result is flagged
// approximate.
type Cache struct {
	fetcher Fetcher
	store   Store
	logger  *slog.Logger

	entries *cache.Cache
	group   singleflight.Group

	ttl            time.Duration
	fetchTimeout   time.Duration
	failureBackoff time.Duration
	now            func() time.Time
}

// NewCache builds a rate cache. store may be nil.
func NewCache(fetcher Fetcher, store Store, cfg Config, logger *slog.Logger) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.FailureBackoff <= 0 {
		cfg.FailureBackoff = DefaultFailureBackoff
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		// freshness is judged against cfg.Now; go-cache expiry only evicts
		// entries nobody has asked for in a while
		entries:        cache.New(2*cfg.TTL, time.Hour),
		ttl:            cfg.TTL,
		fetchTimeout:   cfg.FetchTimeout,
		failureBackoff: cfg.FailureBackoff,
		now:            cfg.Now,
	}
}

// Convert converts amount from one currency to another at the reference rate
// of onDate. Converting a currency to itself is the identity and never touches
// the cache. The only error is a malformed currency code.
func (c *Cache) Convert(ctx context.Context, amount decimal.Decimal, from, to string, onDate time.Time) (types.Conversion, error) {
	rate, err := c.Rate(ctx, from, to, onDate)
	if err != nil {
		return types.Conversion{}, err
	}
	converted := amount
	if rate.Source != types.RateSourceIdentity {
		converted = amount.Mul(rate.Rate).Round(2)
	}
	return types.Conversion{
		Amount:      amount,
		From:        rate.Base,
		To:          rate.Quote,
		Date:        rate.Date,
		Rate:        rate.Rate,
		Converted:   converted,
		Source:      rate.Source,
		Approximate: rate.Approximate,
	}, nil
}

// Rate returns the exchange rate for 1 from in to on onDate. Dates after today
// use today's rate since reference rates are only published for past days.
func (c *Cache) Rate(ctx context.Context, from, to string, onDate time.Time) (types.ExchangeRate, error) {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	if verr := validatePair(from, to); verr.HasErrors() {
		return types.ExchangeRate{}, verr
	}

	now := c.now()
	date := Day(onDate)
	if today := Day(now); date.After(today) {
		date = today
	}
	if from == to {
		return types.ExchangeRate{
			Date: date, Base: from, Quote: to, Rate: decimal.NewFromInt(1),
			FetchedAt: now, Source: types.RateSourceIdentity,
		}, nil
	}

	ctx, span := otel.Tracer("RateCache").Start(ctx, "Rate", trace.WithAttributes(
		attribute.String("rate.from", from),
		attribute.String("rate.to", to),
		attribute.String("rate.date", date.Format(dateLayout)),
	))
	defer span.End()

	key := Key(date, from, to)
	if rate, ok := c.fresh(key); ok {
		metrics.Get().CacheHitsTotal.Add(ctx, 1, cacheAttr)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return rate, nil
	}
	metrics.Get().CacheMissesTotal.Add(ctx, 1, cacheAttr)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, _, shared := c.group.Do(key, func() (interface{}, error) {
		// another flight may have filled the entry between our miss and now
		if rate, ok := c.fresh(key); ok {
			return rate, nil
		}
		return c.refresh(ctx, key, date, from, to), nil
	})
	span.SetAttributes(attribute.Bool("singleflight.shared", shared))
	return v.(types.ExchangeRate), nil
}

// fresh returns the in-memory entry for key when it is still valid. Fallback
// answers are only trusted for the failure backoff so the upstream source is
// retried soon.
func (c *Cache) fresh(key string) (types.ExchangeRate, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		return types.ExchangeRate{}, false
	}
	rate := v.(types.ExchangeRate)
	validFor := c.ttl
	if rate.Approximate {
		validFor = c.failureBackoff
	}
	if c.now().Sub(rate.FetchedAt) >= validFor {
		return rate, false
	}
	return rate, true
}

func (c *Cache) refresh(ctx context.Context, key string, date time.Time, from, to string) types.ExchangeRate {
	// the flight is shared, so one caller's cancellation must not fail the rest
	ctx = context.WithoutCancel(ctx)
	l := c.logger.With(slog.String("key", key))

	if c.store != nil {
		stored, err := c.store.Get(ctx, key)
		switch {
		case err != nil:
			l.WarnContext(ctx, "Rate store read failed", slog.Any("error", err))
		case stored != nil && !stored.Approximate && c.now().Sub(stored.FetchedAt) < c.ttl:
			c.entries.Set(key, *stored, cache.DefaultExpiration)
			return *stored
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	m := metrics.Get()
	m.UpstreamRequestsTotal.Add(ctx, 1, cacheAttr)
	start := time.Now()
	value, err := c.fetcher.FetchRate(fetchCtx, date, from, to)
	m.UpstreamDurationSeconds.Record(ctx, time.Since(start).Seconds(), cacheAttr)
	if err == nil && !value.IsPositive() {
		err = fmt.Errorf("non-positive rate %s", value)
	}
	if err != nil {
		m.UpstreamErrorsTotal.Add(ctx, 1, cacheAttr)
		m.FallbacksTotal.Add(ctx, 1, cacheAttr)
		err = errors.Join(types.ErrUpstreamUnavailable, err)
		l.WarnContext(ctx, "Rate refresh failed, serving fallback", slog.Any("error", err))

		rate := c.fallback(key, date, from, to)
		c.entries.Set(key, rate, cache.DefaultExpiration)
		return rate
	}

	rate := types.ExchangeRate{
		Date:      date,
		Base:      from,
		Quote:     to,
		Rate:      value,
		FetchedAt: c.now(),
		Source:    types.RateSourceUpstream,
	}
	c.entries.Set(key, rate, cache.DefaultExpiration)
	if c.store != nil {
		if err := c.store.Set(ctx, key, rate, c.ttl); err != nil {
			l.WarnContext(ctx, "Rate store write failed", slog.Any("error", err))
		}
	}
	l.DebugContext(ctx, "Rate refreshed", slog.String("rate", value.String()))
	return rate
}

// fallback prefers an expired upstream rate still held in memory over the
// bundled table; both are approximate.
func (c *Cache) fallback(key string, date time.Time, from, to string) types.ExchangeRate {
	if v, ok := c.entries.Get(key); ok {
		if stale := v.(types.ExchangeRate); stale.Source == types.RateSourceUpstream {
			stale.Approximate = true
			stale.FetchedAt = c.now()
			return stale
		}
	}
	rate, known := StaticRate(from, to)
	if !known {
		c.logger.Warn("No static rate for pair, using parity", slog.String("from", from), slog.String("to", to))
	}
	return types.ExchangeRate{
		Date:        date,
		Base:        from,
		Quote:       to,
		Rate:        rate,
		FetchedAt:   c.now(),
		Source:      types.RateSourceFallback,
		Approximate: true,
	}
}

// Key is the cache key of a (date, pair) entry.
func Key(date time.Time, from, to string) string {
	return Day(date).Format(dateLayout) + ":" + from + ":" + to
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validatePair(from, to string) *types.ValidationError {
	verr := &types.ValidationError{}
	if !isCurrencyCode(from) {
		verr.Add("from", "must be a three letter ISO 4217 code")
	}
	if !isCurrencyCode(to) {
		verr.Add("to", "must be a three letter ISO 4217 code")
	}
	return verr
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
