package itinerary

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/api/geo"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

// MockRepository is a testify mock of Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetTripConfig(ctx context.Context, tripID uuid.UUID) (types.TripConfig, error) {
	args := m.Called(ctx, tripID)
	return args.Get(0).(types.TripConfig), args.Error(1)
}

func (m *MockRepository) GetSuggestions(ctx context.Context, tripID uuid.UUID) ([]types.Suggestion, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Suggestion), args.Error(1)
}

func (m *MockRepository) GetPlan(ctx context.Context, tripID uuid.UUID) (types.Plan, error) {
	args := m.Called(ctx, tripID)
	return args.Get(0).(types.Plan), args.Error(1)
}

func (m *MockRepository) SavePlan(ctx context.Context, plan types.Plan, expectedVersion int64) (types.Plan, error) {
	args := m.Called(ctx, plan, expectedVersion)
	return args.Get(0).(types.Plan), args.Error(1)
}

// fixedRates converts with a table of FROM:TO rates.
type fixedRates struct {
	mu    sync.Mutex
	rates map[string]string
	calls int
}

func (f *fixedRates) Convert(_ context.Context, amount decimal.Decimal, from, to string, onDate time.Time) (types.Conversion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	rate := decimal.NewFromInt(1)
	if from != to {
		rate = decimal.RequireFromString(f.rates[from+":"+to])
	}
	return types.Conversion{
		Amount: amount, From: from, To: to, Date: onDate,
		Rate: rate, Converted: amount.Mul(rate).Round(2),
	}, nil
}

type stubWeather struct {
	mu    sync.Mutex
	dates []time.Time
}

func (w *stubWeather) Sample(_ context.Context, date time.Time, p types.Coordinates) types.WeatherSample {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dates = append(w.dates, date)
	return types.WeatherSample{Date: date, Cell: geo.Cell(p), Kind: types.WeatherKindSeasonal, TempMaxC: 21}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var tripStart = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

func parisLyonTrip() (types.TripConfig, []types.Suggestion) {
	start := tripStart
	trip := types.TripConfig{
		ID:                  uuid.New(),
		DurationDays:        2,
		StartDate:           &start,
		DestinationCurrency: "EUR",
	}
	suggestions := []types.Suggestion{
		{ID: 1, Latitude: 48.8606, Longitude: 2.3376, Category: "museum", PriceLocal: decimal.RequireFromString("22")},
		{ID: 2, Latitude: 48.8530, Longitude: 2.3499, Category: "restaurant", PriceLocal: decimal.RequireFromString("45.50")},
		{ID: 3, Latitude: 45.7640, Longitude: 4.8357, Category: "park", PriceLocal: decimal.Zero},
		{ID: 10, Latitude: 48.8570, Longitude: 2.3500, Category: "hotel", PriceLocal: decimal.RequireFromString("120"), IsAccommodation: true},
		{ID: 11, Latitude: 45.7600, Longitude: 4.8400, Category: "hotel", PriceLocal: decimal.RequireFromString("90"), IsAccommodation: true},
	}
	return trip, suggestions
}

func activityIDs(day types.DayPlan) []int64 {
	out := make([]int64, len(day.Activities))
	for i, a := range day.Activities {
		out[i] = a.SuggestionID
	}
	return out
}

func TestService_GeneratePlan(t *testing.T) {
	repo := NewMemoryRepository()
	trip, suggestions := parisLyonTrip()
	repo.PutTrip(trip, suggestions)
	weather := &stubWeather{}
	svc := NewServiceImpl(repo, &fixedRates{}, weather, Config{}, discardLogger())

	plan, err := svc.GeneratePlan(context.Background(), trip.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), plan.Version)
	require.Len(t, plan.Days, 2)
	assert.Equal(t, []int64{1, 2}, activityIDs(plan.Days[0]))
	assert.Equal(t, []int64{3}, activityIDs(plan.Days[1]))
	assert.Equal(t, tripStart.AddDate(0, 0, 1), *plan.Days[1].Date)
	assert.Equal(t, []types.HotelStay{
		{HotelSuggestionID: 10, StartDay: 1, EndDay: 1},
		{HotelSuggestionID: 11, StartDay: 2, EndDay: 2},
	}, plan.HotelStays)
	assert.Empty(t, plan.UncoveredDays)

	require.NotNil(t, plan.Days[0].Weather)
	assert.Equal(t, 21.0, plan.Days[1].Weather.TempMaxC)
	assert.Len(t, weather.dates, 2)

	t.Run("regenerating bumps the version", func(t *testing.T) {
		again, err := svc.GeneratePlan(context.Background(), trip.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), again.Version)
		assert.Equal(t, plan.Days[0].Activities, again.Days[0].Activities)
	})
}

func TestService_GeneratePlan_Errors(t *testing.T) {
	t.Run("unknown trip", func(t *testing.T) {
		svc := NewServiceImpl(NewMemoryRepository(), &fixedRates{}, nil, Config{}, discardLogger())
		_, err := svc.GeneratePlan(context.Background(), uuid.New())
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("trip without days", func(t *testing.T) {
		repo := NewMemoryRepository()
		trip, suggestions := parisLyonTrip()
		trip.DurationDays = 0
		repo.PutTrip(trip, suggestions)
		svc := NewServiceImpl(repo, &fixedRates{}, nil, Config{}, discardLogger())

		_, err := svc.GeneratePlan(context.Background(), trip.ID)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("lost version race surfaces as conflict", func(t *testing.T) {
		trip, suggestions := parisLyonTrip()
		repo := new(MockRepository)
		repo.On("GetTripConfig", mock.Anything, trip.ID).Return(trip, nil)
		repo.On("GetSuggestions", mock.Anything, trip.ID).Return(suggestions, nil)
		repo.On("GetPlan", mock.Anything, trip.ID).Return(types.Plan{TripID: trip.ID, Version: 4}, nil)
		repo.On("SavePlan", mock.Anything, mock.AnythingOfType("types.Plan"), int64(4)).
			Return(types.Plan{}, types.ErrConcurrentModification)

		svc := NewServiceImpl(repo, &fixedRates{}, nil, Config{}, discardLogger())
		_, err := svc.GeneratePlan(context.Background(), trip.ID)
		assert.ErrorIs(t, err, types.ErrConcurrentModification)
		repo.AssertExpectations(t)
	})
}

func TestService_GeneratePlan_MixedCurrencyHotels(t *testing.T) {
	repo := NewMemoryRepository()
	trip, suggestions := parisLyonTrip()
	trip.DurationDays = 1
	suggestions = suggestions[:2]
	suggestions = append(suggestions,
		types.Suggestion{ID: 20, Latitude: 48.857, Longitude: 2.35, Category: "hotel", PriceLocal: decimal.RequireFromString("100"), IsAccommodation: true},
		types.Suggestion{ID: 21, Latitude: 48.857, Longitude: 2.35, Category: "hotel", PriceLocal: decimal.RequireFromString("90"), CurrencyCode: "GBP", IsAccommodation: true},
	)
	repo.PutTrip(trip, suggestions)
	rates := &fixedRates{rates: map[string]string{"GBP:EUR": "1.17"}}
	svc := NewServiceImpl(repo, rates, nil, Config{}, discardLogger())

	plan, err := svc.GeneratePlan(context.Background(), trip.ID)
	require.NoError(t, err)
	require.Len(t, plan.HotelStays, 1)
	// 90 GBP is dearer than 100 EUR once converted
	assert.Equal(t, int64(20), plan.HotelStays[0].HotelSuggestionID)
	assert.Positive(t, rates.calls)
}

func TestService_GeneratePlan_SerializedPerTrip(t *testing.T) {
	repo := NewMemoryRepository()
	trip, suggestions := parisLyonTrip()
	repo.PutTrip(trip, suggestions)
	svc := NewServiceImpl(repo, &fixedRates{}, nil, Config{}, discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GeneratePlan(context.Background(), trip.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	plan, err := svc.GetPlan(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), plan.Version)
}

func TestService_ReorderPlan(t *testing.T) {
	setup := func(t *testing.T) (*ServiceImpl, uuid.UUID) {
		repo := NewMemoryRepository()
		trip, suggestions := parisLyonTrip()
		repo.PutTrip(trip, suggestions)
		svc := NewServiceImpl(repo, &fixedRates{}, nil, Config{}, discardLogger())
		_, err := svc.GeneratePlan(context.Background(), trip.ID)
		require.NoError(t, err)
		return svc, trip.ID
	}
	swap := types.ReorderRequest{Days: []types.ReorderDay{
		{DayNumber: 1, Activities: []types.ReorderActivity{{SuggestionID: 3, OrderInDay: 0}}},
		{DayNumber: 2, Activities: []types.ReorderActivity{
			{SuggestionID: 2, OrderInDay: 0},
			{SuggestionID: 1, OrderInDay: 1},
		}},
	}}

	t.Run("applies with the current version", func(t *testing.T) {
		svc, tripID := setup(t)
		plan, err := svc.ReorderPlan(context.Background(), tripID, 1, swap)
		require.NoError(t, err)
		assert.Equal(t, int64(2), plan.Version)
		assert.Equal(t, []int64{3}, activityIDs(plan.Days[0]))
		assert.Equal(t, []int64{2, 1}, activityIDs(plan.Days[1]))
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		svc, tripID := setup(t)
		_, err := svc.ReorderPlan(context.Background(), tripID, 7, swap)
		assert.ErrorIs(t, err, types.ErrConcurrentModification)
	})

	t.Run("invalid payload leaves the plan unchanged", func(t *testing.T) {
		svc, tripID := setup(t)
		bad := types.ReorderRequest{Days: []types.ReorderDay{
			{DayNumber: 1, Activities: []types.ReorderActivity{{SuggestionID: 99, OrderInDay: 0}}},
		}}
		_, err := svc.ReorderPlan(context.Background(), tripID, 0, bad)
		assert.ErrorIs(t, err, types.ErrValidation)

		plan, err := svc.GetPlan(context.Background(), tripID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), plan.Version)
		assert.Equal(t, []int64{1, 2}, activityIDs(plan.Days[0]))
	})

	t.Run("trip without plan", func(t *testing.T) {
		svc := NewServiceImpl(NewMemoryRepository(), &fixedRates{}, nil, Config{}, discardLogger())
		_, err := svc.ReorderPlan(context.Background(), uuid.New(), 0, swap)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestService_GetBudget(t *testing.T) {
	repo := NewMemoryRepository()
	trip, suggestions := parisLyonTrip()
	repo.PutTrip(trip, suggestions)
	rates := &fixedRates{rates: map[string]string{"EUR:USD": "1.10"}}
	svc := NewServiceImpl(repo, rates, nil, Config{}, discardLogger())

	_, err := svc.GetBudget(context.Background(), trip.ID, "USD")
	require.ErrorIs(t, err, types.ErrNotFound)

	_, err = svc.GeneratePlan(context.Background(), trip.ID)
	require.NoError(t, err)

	b, err := svc.GetBudget(context.Background(), trip.ID, "usd")
	require.NoError(t, err)
	require.Len(t, b.DailyTotals, 2)
	// 22 * 1.10 + 45.50 * 1.10
	assert.Equal(t, "74.25", b.DailyTotals[0].TotalInDisplayCurrency.String())
	assert.True(t, b.DailyTotals[1].TotalInDisplayCurrency.IsZero())
	assert.Equal(t, "74.25", b.TotalInDisplayCurrency.String())
	assert.Equal(t, "$", b.CurrencySymbol)
}

func TestService_GetBudget_TripDatesChangedAfterGeneration(t *testing.T) {
	repo := NewMemoryRepository()
	trip, suggestions := parisLyonTrip()
	repo.PutTrip(trip, suggestions)
	svc := NewServiceImpl(repo, &fixedRates{}, nil, Config{}, discardLogger())

	plan, err := svc.GeneratePlan(context.Background(), trip.ID)
	require.NoError(t, err)
	require.NotNil(t, plan.Days[0].Date)
	assert.Equal(t, tripStart, *plan.Days[0].Date)

	moved := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	trip.StartDate = &moved
	repo.PutTrip(trip, suggestions)

	b, err := svc.GetBudget(context.Background(), trip.ID, "EUR")
	require.NoError(t, err)
	require.Len(t, b.DailyTotals, 2)
	assert.Equal(t, moved, b.DailyTotals[0].Date)
	assert.Equal(t, moved.AddDate(0, 0, 1), b.DailyTotals[1].Date)

	trip.StartDate = nil
	repo.PutTrip(trip, suggestions)

	b, err = svc.GetBudget(context.Background(), trip.ID, "EUR")
	require.NoError(t, err)
	y, m, d := time.Now().UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	for _, total := range b.DailyTotals {
		// midnight rollover between the two reads is tolerated
		assert.WithinDuration(t, today, total.Date, 24*time.Hour)
		assert.NotEqual(t, tripStart, total.Date)
	}
}
