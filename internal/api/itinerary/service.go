package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/internal/api/budget"
	"github.com/FACorreiaa/go-trip-planner/internal/api/geo"
	"github.com/FACorreiaa/go-trip-planner/internal/api/hotel"
	"github.com/FACorreiaa/go-trip-planner/internal/api/schedule"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GeneratePlan(ctx context.Context, tripID uuid.UUID) (*types.Plan, error)
	GetPlan(ctx context.Context, tripID uuid.UUID) (*types.Plan, error)
	// ReorderPlan applies a bulk reorder. expectedVersion zero means "the
	// version just loaded".
	ReorderPlan(ctx context.Context, tripID uuid.UUID, expectedVersion int64, req types.ReorderRequest) (*types.Plan, error)
	GetBudget(ctx context.Context, tripID uuid.UUID, currency string) (*types.Budget, error)
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, onDate time.Time) (*types.Conversion, error)
}

// RateConverter is the money conversion the service needs from the rate cache.
type RateConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, onDate time.Time) (types.Conversion, error)
}

type WeatherSampler interface {
	Sample(ctx context.Context, date time.Time, p types.Coordinates) types.WeatherSample
}

type Config struct {
	ClusterRadiusKm    float64
	HotelRadiusKm      float64
	WeatherConcurrency int
}

type ServiceImpl struct {
	logger    *slog.Logger
	repo      Repository
	clusterer *geo.Clusterer
	rates     RateConverter
	weather   WeatherSampler
	budget    *budget.Aggregator
	locks     *tripLocks
	cfg       Config
	now       func() time.Time
}

// NewServiceImpl wires the planner. weather may be nil, in which case days
// carry no weather annotation.
func NewServiceImpl(repo Repository, rates RateConverter, weather WeatherSampler, cfg Config, logger *slog.Logger) *ServiceImpl {
	if cfg.ClusterRadiusKm <= 0 {
		cfg.ClusterRadiusKm = geo.DefaultClusterRadiusKm
	}
	if cfg.HotelRadiusKm <= 0 {
		cfg.HotelRadiusKm = hotel.DefaultSearchRadiusKm
	}
	if cfg.WeatherConcurrency <= 0 {
		cfg.WeatherConcurrency = 4
	}
	return &ServiceImpl{
		logger:    logger,
		repo:      repo,
		clusterer: geo.NewClusterer(cfg.ClusterRadiusKm),
		rates:     rates,
		weather:   weather,
		budget:    budget.NewAggregator(rates, time.Now),
		locks:     newTripLocks(),
		cfg:       cfg,
		now:       time.Now,
	}
}

// GeneratePlan replaces the trip's plan with a freshly generated one:
// cluster, assign hotels, schedule, then annotate weather.
func (s *ServiceImpl) GeneratePlan(ctx context.Context, tripID uuid.UUID) (*types.Plan, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GeneratePlan", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GeneratePlan"), slog.String("tripID", tripID.String()))
	start := time.Now()

	unlock := s.locks.lock(tripID)
	defer unlock()

	trip, err := s.repo.GetTripConfig(ctx, tripID)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to load trip", err)
	}
	if trip.DurationDays < 1 {
		return nil, s.fail(ctx, span, l, "Trip has no days",
			types.NewValidationError("durationDays", "must be at least 1"))
	}
	suggestions, err := s.repo.GetSuggestions(ctx, tripID)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to load suggestions", err)
	}

	var expected int64
	if current, err := s.repo.GetPlan(ctx, tripID); err == nil {
		expected = current.Version
	} else if !errors.Is(err, types.ErrNotFound) {
		return nil, s.fail(ctx, span, l, "Failed to load current plan", err)
	}

	clusters := s.clusterer.Cluster(suggestions, trip.DurationDays)
	_, accommodation := types.SplitAccommodation(suggestions)
	assignment := hotel.NewAssigner(s.cfg.HotelRadiusKm, s.hotelPrice(ctx, trip, accommodation)).
		Assign(clusters, accommodation)
	days := schedule.Schedule(clusters, suggestions, trip.DurationDays, trip.StartDate)
	s.annotateWeather(ctx, days, clusters)

	plan := types.Plan{
		TripID:        tripID,
		Version:       expected,
		Days:          days,
		HotelStays:    assignment.Stays,
		UncoveredDays: assignment.UncoveredDays,
		GeneratedAt:   s.now().UTC(),
	}
	saved, err := s.repo.SavePlan(ctx, plan, expected)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to save plan", err)
	}

	m := metrics.Get()
	m.PlanGenerationsTotal.Add(ctx, 1)
	m.PlanGenerationSeconds.Record(ctx, time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("plan.days", len(saved.Days)),
		attribute.Int("plan.hotel_stays", len(saved.HotelStays)),
		attribute.Int("plan.uncovered_days", len(saved.UncoveredDays)),
		attribute.Int64("plan.version", saved.Version),
	)
	if len(saved.UncoveredDays) > 0 {
		l.WarnContext(ctx, "Days without accommodation in range", slog.Any("days", saved.UncoveredDays))
	}
	l.InfoContext(ctx, "Plan generated", slog.Int64("version", saved.Version), slog.Int("suggestions", len(suggestions)))
	span.SetStatus(codes.Ok, "Plan generated")
	return &saved, nil
}

func (s *ServiceImpl) GetPlan(ctx context.Context, tripID uuid.UUID) (*types.Plan, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GetPlan", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
	))
	defer span.End()

	plan, err := s.repo.GetPlan(ctx, tripID)
	if err != nil {
		return nil, s.fail(ctx, span, s.logger.With(slog.String("method", "GetPlan")), "Failed to load plan", err)
	}
	span.SetStatus(codes.Ok, "Plan loaded")
	return &plan, nil
}

func (s *ServiceImpl) ReorderPlan(ctx context.Context, tripID uuid.UUID, expectedVersion int64, req types.ReorderRequest) (*types.Plan, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "ReorderPlan", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.Int64("plan.expected_version", expectedVersion),
		attribute.Int("reorder.days", len(req.Days)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "ReorderPlan"), slog.String("tripID", tripID.String()))

	unlock := s.locks.lock(tripID)
	defer unlock()

	current, err := s.repo.GetPlan(ctx, tripID)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to load plan", err)
	}
	if expectedVersion != 0 && expectedVersion != current.Version {
		return nil, s.fail(ctx, span, l, "Stale plan version",
			fmt.Errorf("trip %s is at version %d, not %d: %w", tripID, current.Version, expectedVersion, types.ErrConcurrentModification))
	}

	next, err := schedule.Reorder(current, req)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Reorder rejected", err)
	}
	saved, err := s.repo.SavePlan(ctx, next, current.Version)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to save reordered plan", err)
	}

	l.InfoContext(ctx, "Plan reordered", slog.Int64("version", saved.Version))
	span.SetStatus(codes.Ok, "Plan reordered")
	return &saved, nil
}

func (s *ServiceImpl) GetBudget(ctx context.Context, tripID uuid.UUID, currency string) (*types.Budget, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GetBudget", trace.WithAttributes(
		attribute.String("trip.id", tripID.String()),
		attribute.String("budget.currency", currency),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GetBudget"), slog.String("tripID", tripID.String()))

	trip, err := s.repo.GetTripConfig(ctx, tripID)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to load trip", err)
	}
	plan, err := s.repo.GetPlan(ctx, tripID)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to load plan", err)
	}
	suggestions, err := s.repo.GetSuggestions(ctx, tripID)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to load suggestions", err)
	}

	b, err := s.budget.Aggregate(ctx, plan, suggestions, trip, currency)
	if err != nil {
		return nil, s.fail(ctx, span, l, "Failed to aggregate budget", err)
	}
	span.SetAttributes(attribute.Bool("budget.approximate", b.Approximate))
	span.SetStatus(codes.Ok, "Budget computed")
	return &b, nil
}

func (s *ServiceImpl) Convert(ctx context.Context, amount decimal.Decimal, from, to string, onDate time.Time) (*types.Conversion, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Convert", trace.WithAttributes(
		attribute.String("rate.from", from),
		attribute.String("rate.to", to),
	))
	defer span.End()

	conv, err := s.rates.Convert(ctx, amount, from, to, onDate)
	if err != nil {
		return nil, s.fail(ctx, span, s.logger.With(slog.String("method", "Convert")), "Conversion rejected", err)
	}
	span.SetAttributes(attribute.Bool("rate.approximate", conv.Approximate))
	return &conv, nil
}

// hotelPrice returns the price used to compare accommodation. Candidates all
// priced in one currency compare on priceLocal; mixed currencies are brought
// to the trip's display currency at the rate of the first day.
func (s *ServiceImpl) hotelPrice(ctx context.Context, trip types.TripConfig, accommodation []types.Suggestion) hotel.PriceFunc {
	mixed := false
	for _, a := range accommodation {
		if a.Currency(trip) != accommodation[0].Currency(trip) {
			mixed = true
			break
		}
	}
	if !mixed || s.rates == nil {
		return nil
	}

	target := strings.ToUpper(trip.DisplayCurrency)
	if target == "" {
		target = strings.ToUpper(trip.DestinationCurrency)
	}
	onDate := s.now()
	if trip.StartDate != nil {
		onDate = *trip.StartDate
	}
	return func(c types.Suggestion) decimal.Decimal {
		conv, err := s.rates.Convert(ctx, c.PriceLocal, c.Currency(trip), target, onDate)
		if err != nil {
			s.logger.WarnContext(ctx, "Comparing accommodation on local price",
				slog.Int64("suggestionID", c.ID), slog.Any("error", err))
			return c.PriceLocal
		}
		return conv.Converted
	}
}

// annotateWeather samples each dated day at its cluster centroid. Free days
// use the nearest earlier day's area, or the first later one.
func (s *ServiceImpl) annotateWeather(ctx context.Context, days []types.DayPlan, clusters []types.Cluster) {
	if s.weather == nil {
		return
	}
	areas := dayAreas(clusters, len(days))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.WeatherConcurrency)
	for i := range days {
		if days[i].Date == nil || areas[i] == nil {
			continue
		}
		g.Go(func() error {
			sample := s.weather.Sample(gctx, *days[i].Date, *areas[i])
			days[i].Weather = &sample
			return nil
		})
	}
	_ = g.Wait()
}

func dayAreas(clusters []types.Cluster, n int) []*types.Coordinates {
	areas := make([]*types.Coordinates, n)
	var last *types.Coordinates
	for i := 0; i < n && i < len(clusters); i++ {
		if !clusters[i].Empty() {
			c := clusters[i].Centroid
			last = &c
		}
		areas[i] = last
	}
	// leading free days take the first area that follows them
	for i := n - 1; i > 0; i-- {
		if areas[i-1] == nil {
			areas[i-1] = areas[i]
		}
	}
	return areas
}

func (s *ServiceImpl) fail(ctx context.Context, span trace.Span, l *slog.Logger, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	switch {
	case errors.Is(err, types.ErrValidation), errors.Is(err, types.ErrNotFound):
		l.InfoContext(ctx, msg, slog.Any("error", err))
	case errors.Is(err, types.ErrConcurrentModification):
		metrics.Get().PlanConflictsTotal.Add(ctx, 1)
		l.WarnContext(ctx, msg, slog.Any("error", err))
	default:
		l.ErrorContext(ctx, msg, slog.Any("error", err))
	}
	return err
}
