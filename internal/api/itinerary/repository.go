package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/go-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const dateLayout = "2006-01-02"

// Ensure RepositoryImpl implements the Repository interface
var _ Repository = (*RepositoryImpl)(nil)

// Repository reads the trip snapshot and stores generated plans.
type Repository interface {
	GetTripConfig(ctx context.Context, tripID uuid.UUID) (types.TripConfig, error)
	GetSuggestions(ctx context.Context, tripID uuid.UUID) ([]types.Suggestion, error)
	GetPlan(ctx context.Context, tripID uuid.UUID) (types.Plan, error)
	// SavePlan stores plan if the stored version still equals expectedVersion
	// (zero for a trip without a plan) and returns it with the new version.
	SavePlan(ctx context.Context, plan types.Plan, expectedVersion int64) (types.Plan, error)
}

// pgxPool is the subset of *pgxpool.Pool the repository uses.
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool pgxPool
}

func NewRepository(pgpool pgxPool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

// planDocument is the JSONB body of a stored plan.
type planDocument struct {
	Days          []types.DayPlan   `json:"days"`
	HotelStays    []types.HotelStay `json:"hotelStays"`
	UncoveredDays []int             `json:"uncoveredDays"`
}

// GetTripConfig retrieves the trip read model
func (r *RepositoryImpl) GetTripConfig(ctx context.Context, tripID uuid.UUID) (types.TripConfig, error) {
	query := `
        SELECT id, duration_days,
               COALESCE(to_char(start_date, 'YYYY-MM-DD'), ''),
               COALESCE(to_char(end_date, 'YYYY-MM-DD'), ''),
               destination_currency, COALESCE(display_currency, '')
        FROM trips
        WHERE id = $1
    `
	var (
		trip       types.TripConfig
		start, end string
	)
	err := r.timed(ctx, "GetTripConfig", func() error {
		return r.pgpool.QueryRow(ctx, query, tripID).Scan(
			&trip.ID, &trip.DurationDays, &start, &end, &trip.DestinationCurrency, &trip.DisplayCurrency,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.TripConfig{}, fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to get trip", slog.Any("error", err))
		return types.TripConfig{}, fmt.Errorf("failed to get trip: %w", err)
	}
	if trip.StartDate, err = parseDate(start); err != nil {
		return types.TripConfig{}, fmt.Errorf("trip %s start date: %w", tripID, err)
	}
	if trip.EndDate, err = parseDate(end); err != nil {
		return types.TripConfig{}, fmt.Errorf("trip %s end date: %w", tripID, err)
	}
	return trip, nil
}

// GetSuggestions retrieves every suggestion visible to the trip, ordered by id
func (r *RepositoryImpl) GetSuggestions(ctx context.Context, tripID uuid.UUID) ([]types.Suggestion, error) {
	query := `
        SELECT id, name, latitude, longitude, category, duration_minutes,
               price_local::text, COALESCE(currency_code, ''), is_accommodation
        FROM suggestions
        WHERE trip_id = $1
        ORDER BY id
    `
	var suggestions []types.Suggestion
	err := r.timed(ctx, "GetSuggestions", func() error {
		rows, err := r.pgpool.Query(ctx, query, tripID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				s     types.Suggestion
				price string
			)
			if err := rows.Scan(
				&s.ID, &s.Name, &s.Latitude, &s.Longitude, &s.Category, &s.DurationMinutes,
				&price, &s.CurrencyCode, &s.IsAccommodation,
			); err != nil {
				return fmt.Errorf("failed to scan suggestion: %w", err)
			}
			if s.PriceLocal, err = decimal.NewFromString(price); err != nil {
				return fmt.Errorf("suggestion %d price %q: %w", s.ID, price, err)
			}
			s.TripID = tripID
			suggestions = append(suggestions, s)
		}
		return rows.Err()
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to get suggestions", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get suggestions: %w", err)
	}
	return suggestions, nil
}

// GetPlan retrieves the stored plan of a trip
func (r *RepositoryImpl) GetPlan(ctx context.Context, tripID uuid.UUID) (types.Plan, error) {
	query := `
        SELECT version, plan, generated_at, updated_at
        FROM trip_plans
        WHERE trip_id = $1
    `
	plan := types.Plan{TripID: tripID}
	var raw []byte
	err := r.timed(ctx, "GetPlan", func() error {
		return r.pgpool.QueryRow(ctx, query, tripID).Scan(&plan.Version, &raw, &plan.GeneratedAt, &plan.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Plan{}, fmt.Errorf("plan for trip %s: %w", tripID, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to get plan", slog.Any("error", err))
		return types.Plan{}, fmt.Errorf("failed to get plan: %w", err)
	}

	var doc planDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return types.Plan{}, fmt.Errorf("failed to decode plan for trip %s: %w", tripID, err)
	}
	plan.Days, plan.HotelStays, plan.UncoveredDays = doc.Days, doc.HotelStays, doc.UncoveredDays
	return plan, nil
}

// SavePlan writes the plan and a history row in one transaction. The write
// only applies when the stored version still equals expectedVersion.
func (r *RepositoryImpl) SavePlan(ctx context.Context, plan types.Plan, expectedVersion int64) (types.Plan, error) {
	l := r.logger.With(slog.String("tripID", plan.TripID.String()), slog.Int64("expectedVersion", expectedVersion))

	raw, err := json.Marshal(planDocument{Days: plan.Days, HotelStays: plan.HotelStays, UncoveredDays: plan.UncoveredDays})
	if err != nil {
		return types.Plan{}, fmt.Errorf("failed to encode plan: %w", err)
	}

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return types.Plan{}, fmt.Errorf("failed to begin transaction: %w", err)
	}

	now := time.Now().UTC()
	if plan.GeneratedAt.IsZero() {
		plan.GeneratedAt = now
	}
	next := expectedVersion + 1

	var tag pgconn.CommandTag
	if expectedVersion == 0 {
		tag, err = tx.Exec(ctx, `
            INSERT INTO trip_plans (trip_id, version, plan, generated_at, updated_at)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (trip_id) DO NOTHING
        `, plan.TripID, next, raw, plan.GeneratedAt, now)
	} else {
		tag, err = tx.Exec(ctx, `
            UPDATE trip_plans
            SET version = $2, plan = $3, generated_at = $4, updated_at = $5
            WHERE trip_id = $1 AND version = $6
        `, plan.TripID, next, raw, plan.GeneratedAt, now, expectedVersion)
	}
	if err != nil {
		r.rollback(ctx, tx)
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		l.ErrorContext(ctx, "Failed to write plan", slog.Any("error", err))
		return types.Plan{}, fmt.Errorf("failed to write plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.rollback(ctx, tx)
		l.WarnContext(ctx, "Plan version changed underneath the write")
		return types.Plan{}, fmt.Errorf("trip %s expected version %d: %w", plan.TripID, expectedVersion, types.ErrConcurrentModification)
	}

	if _, err = tx.Exec(ctx, `
        INSERT INTO trip_plan_history (trip_id, version, plan, created_at)
        VALUES ($1, $2, $3, $4)
    `, plan.TripID, next, raw, now); err != nil {
		r.rollback(ctx, tx)
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		l.ErrorContext(ctx, "Failed to write plan history", slog.Any("error", err))
		return types.Plan{}, fmt.Errorf("failed to write plan history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit plan", slog.Any("error", err))
		return types.Plan{}, fmt.Errorf("failed to commit plan: %w", err)
	}

	plan.Version = next
	plan.UpdatedAt = now
	return plan, nil
}

func (r *RepositoryImpl) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.WarnContext(ctx, "Failed to roll back transaction", slog.Any("error", err))
	}
}

// timed records query duration and failures, ignoring not-found results.
func (r *RepositoryImpl) timed(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	err := fn()
	m := metrics.Get()
	m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		m.DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.DebugContext(ctx, "Query failed", slog.String("op", op), slog.Any("error", err))
	}
	return err
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
