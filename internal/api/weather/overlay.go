package weather

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/internal/api/geo"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const (
	DefaultTTL                 = 24 * time.Hour
	DefaultFetchTimeout        = 3 * time.Second
	DefaultFailureBackoff      = time.Minute
	DefaultForecastHorizonDays = 14

	dateLayout = "2006-01-02"
)

var cacheAttr = metric.WithAttributes(attribute.String("cache", "weather"))

// Daily is one day of weather at a point as reported by a source.
type Daily struct {
	TempMinC                 float64
	TempMaxC                 float64
	PrecipitationProbability float64
}

// Fetcher reads weather for a point: a forecast for near dates, and for far
// dates the prior-year average around the same calendar day.
type Fetcher interface {
	Forecast(ctx context.Context, date time.Time, p types.Coordinates) (Daily, error)
	Seasonal(ctx context.Context, date time.Time, p types.Coordinates) (Daily, error)
}

// Store is an optional durable tier consulted before the upstream source.
type Store interface {
	Get(ctx context.Context, key string) (*types.WeatherSample, error)
	Set(ctx context.Context, key string, value types.WeatherSample, ttl time.Duration) error
}

type Config struct {
	TTL                 time.Duration
	FetchTimeout        time.Duration
	FailureBackoff      time.Duration
	ForecastHorizonDays int
	Now                 func() time.Time
}

// Overlay annotates days with weather, keyed by (date, location cell). It has
// the same refresh discipline as the rate cache: fresh entries from memory,
// one upstream call per key at a time, bundled climatology on failure.
type Overlay struct {
	fetcher Fetcher
	store   Store
	logger  *slog.Logger

	entries *cache.Cache
	group   singleflight.Group

	ttl            time.Duration
	fetchTimeout   time.Duration
	failureBackoff time.Duration
	horizonDays    int
	now            func() time.Time
}

// NewOverlay builds a weather overlay. store may be nil.
func NewOverlay(fetcher Fetcher, store Store, cfg Config, logger *slog.Logger) *Overlay {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.FailureBackoff <= 0 {
		cfg.FailureBackoff = DefaultFailureBackoff
	}
	if cfg.ForecastHorizonDays <= 0 {
		cfg.ForecastHorizonDays = DefaultForecastHorizonDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Overlay{
		fetcher:        fetcher,
		store:          store,
		logger:         logger,
		entries:        cache.New(2*cfg.TTL, time.Hour),
		ttl:            cfg.TTL,
		fetchTimeout:   cfg.FetchTimeout,
		failureBackoff: cfg.FailureBackoff,
		horizonDays:    cfg.ForecastHorizonDays,
		now:            cfg.Now,
	}
}

// KindFor reports whether a date is answered by a forecast or a seasonal
// average, relative to the overlay's clock.
func (o *Overlay) KindFor(date time.Time) types.WeatherKind {
	days := day(date).Sub(day(o.now())).Hours() / 24
	if days < 0 {
		days = -days
	}
	if int(days) <= o.horizonDays {
		return types.WeatherKindForecast
	}
	return types.WeatherKindSeasonal
}

// Sample returns the weather for the location cell containing p on date. It
// never fails; upstream problems yield an approximate climatological sample.
func (o *Overlay) Sample(ctx context.Context, date time.Time, p types.Coordinates) types.WeatherSample {
	date = day(date)
	cell := geo.Cell(p)
	kind := o.KindFor(date)
	key := Key(date, cell, kind)

	ctx, span := otel.Tracer("WeatherOverlay").Start(ctx, "Sample", trace.WithAttributes(
		attribute.String("weather.cell", cell),
		attribute.String("weather.date", date.Format(dateLayout)),
		attribute.String("weather.kind", string(kind)),
	))
	defer span.End()

	if s, ok := o.fresh(key); ok {
		metrics.Get().CacheHitsTotal.Add(ctx, 1, cacheAttr)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return s
	}
	metrics.Get().CacheMissesTotal.Add(ctx, 1, cacheAttr)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, _, _ := o.group.Do(key, func() (interface{}, error) {
		if s, ok := o.fresh(key); ok {
			return s, nil
		}
		return o.refresh(ctx, key, date, cell, kind), nil
	})
	return v.(types.WeatherSample)
}

func (o *Overlay) fresh(key string) (types.WeatherSample, bool) {
	v, ok := o.entries.Get(key)
	if !ok {
		return types.WeatherSample{}, false
	}
	s := v.(types.WeatherSample)
	validFor := o.ttl
	if s.Approximate {
		validFor = o.failureBackoff
	}
	return s, o.now().Sub(s.FetchedAt) < validFor
}

func (o *Overlay) refresh(ctx context.Context, key string, date time.Time, cell string, kind types.WeatherKind) types.WeatherSample {
	ctx = context.WithoutCancel(ctx)
	l := o.logger.With(slog.String("key", key))

	if o.store != nil {
		stored, err := o.store.Get(ctx, key)
		switch {
		case err != nil:
			l.WarnContext(ctx, "Weather store read failed", slog.Any("error", err))
		case stored != nil && !stored.Approximate && o.now().Sub(stored.FetchedAt) < o.ttl:
			o.entries.Set(key, *stored, cache.DefaultExpiration)
			return *stored
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()

	center := geo.CellCenter(cell)
	m := metrics.Get()
	m.UpstreamRequestsTotal.Add(ctx, 1, cacheAttr)
	start := time.Now()
	var (
		d   Daily
		err error
	)
	if kind == types.WeatherKindForecast {
		d, err = o.fetcher.Forecast(fetchCtx, date, center)
	} else {
		d, err = o.fetcher.Seasonal(fetchCtx, date, center)
	}
	m.UpstreamDurationSeconds.Record(ctx, time.Since(start).Seconds(), cacheAttr)

	sample := types.WeatherSample{
		Date:      date,
		Cell:      cell,
		Kind:      kind,
		FetchedAt: o.now(),
	}
	if err != nil {
		m.UpstreamErrorsTotal.Add(ctx, 1, cacheAttr)
		m.FallbacksTotal.Add(ctx, 1, cacheAttr)
		l.WarnContext(ctx, "Weather refresh failed, serving climatology",
			slog.Any("error", errors.Join(types.ErrUpstreamUnavailable, err)))
		d = Climatology(center.Latitude, date.Month())
		sample.Approximate = true
	}
	sample.TempMinC = d.TempMinC
	sample.TempMaxC = d.TempMaxC
	sample.PrecipitationProbability = d.PrecipitationProbability

	o.entries.Set(key, sample, cache.DefaultExpiration)
	if o.store != nil && !sample.Approximate {
		if err := o.store.Set(ctx, key, sample, o.ttl); err != nil {
			l.WarnContext(ctx, "Weather store write failed", slog.Any("error", err))
		}
	}
	return sample
}

// Key is the cache key of a (date, cell) entry. The kind is part of the key so
// a forecast replaces the seasonal figure once a date enters the horizon.
func Key(date time.Time, cell string, kind types.WeatherKind) string {
	return day(date).Format(dateLayout) + ":" + cell + ":" + string(kind)
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
