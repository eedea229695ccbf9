package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/api/geo"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var (
	lisbon = types.Coordinates{Latitude: 38.7223, Longitude: -9.1393}
	sydney = types.Coordinates{Latitude: -33.8688, Longitude: 151.2093}
	today  = time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
)

type fakeFetcher struct {
	forecasts atomic.Int32
	seasonals atomic.Int32
	err       error
	gate      chan struct{}
}

func (f *fakeFetcher) Forecast(_ context.Context, _ time.Time, _ types.Coordinates) (Daily, error) {
	f.forecasts.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return Daily{}, f.err
	}
	return Daily{TempMinC: 17, TempMaxC: 26, PrecipitationProbability: 0.1}, nil
}

func (f *fakeFetcher) Seasonal(_ context.Context, _ time.Time, _ types.Coordinates) (Daily, error) {
	f.seasonals.Add(1)
	if f.err != nil {
		return Daily{}, f.err
	}
	return Daily{TempMinC: 12, TempMaxC: 19, PrecipitationProbability: 0.4}, nil
}

func newTestOverlay(f Fetcher) *Overlay {
	now := today
	return NewOverlay(f, nil, Config{Now: func() time.Time { return now }},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestOverlay_KindFor(t *testing.T) {
	o := newTestOverlay(&fakeFetcher{})

	assert.Equal(t, types.WeatherKindForecast, o.KindFor(today))
	assert.Equal(t, types.WeatherKindForecast, o.KindFor(today.AddDate(0, 0, 14)))
	assert.Equal(t, types.WeatherKindSeasonal, o.KindFor(today.AddDate(0, 0, 15)))
	assert.Equal(t, types.WeatherKindSeasonal, o.KindFor(today.AddDate(0, 2, 0)))
}

func TestOverlay_Sample(t *testing.T) {
	t.Run("near dates are forecast and cached per cell", func(t *testing.T) {
		f := &fakeFetcher{}
		o := newTestOverlay(f)
		ctx := context.Background()
		date := today.AddDate(0, 0, 3)

		s := o.Sample(ctx, date, lisbon)
		assert.Equal(t, types.WeatherKindForecast, s.Kind)
		assert.Equal(t, geo.Cell(lisbon), s.Cell)
		assert.Equal(t, 26.0, s.TempMaxC)
		assert.False(t, s.Approximate)

		again := o.Sample(ctx, date, geo.CellCenter(geo.Cell(lisbon)))
		assert.Equal(t, s, again)
		assert.Equal(t, int32(1), f.forecasts.Load())
	})

	t.Run("far dates use the seasonal average", func(t *testing.T) {
		f := &fakeFetcher{}
		o := newTestOverlay(f)

		s := o.Sample(context.Background(), today.AddDate(0, 4, 0), lisbon)
		assert.Equal(t, types.WeatherKindSeasonal, s.Kind)
		assert.Equal(t, 0.4, s.PrecipitationProbability)
		assert.Equal(t, int32(1), f.seasonals.Load())
		assert.Zero(t, f.forecasts.Load())
	})

	t.Run("upstream failure yields approximate climatology", func(t *testing.T) {
		f := &fakeFetcher{err: errors.New("dial tcp: i/o timeout")}
		o := newTestOverlay(f)

		s := o.Sample(context.Background(), today, lisbon)
		assert.True(t, s.Approximate)
		want := Climatology(geo.CellCenter(s.Cell).Latitude, today.Month())
		assert.Equal(t, want.TempMaxC, s.TempMaxC)
	})

	t.Run("concurrent samples share one fetch", func(t *testing.T) {
		f := &fakeFetcher{gate: make(chan struct{})}
		o := newTestOverlay(f)

		var wg sync.WaitGroup
		out := make([]types.WeatherSample, 3)
		for i := range out {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out[i] = o.Sample(context.Background(), today, lisbon)
			}(i)
		}
		time.Sleep(100 * time.Millisecond)
		close(f.gate)
		wg.Wait()

		assert.Equal(t, int32(1), f.forecasts.Load())
		assert.Equal(t, out[0], out[1])
		assert.Equal(t, out[1], out[2])
	})
}

func TestClimatology_Hemispheres(t *testing.T) {
	northJuly := Climatology(lisbon.Latitude, time.July)
	northJan := Climatology(lisbon.Latitude, time.January)
	southJuly := Climatology(sydney.Latitude, time.July)
	southJan := Climatology(sydney.Latitude, time.January)

	assert.Greater(t, northJuly.TempMaxC, northJan.TempMaxC)
	assert.Greater(t, southJan.TempMaxC, southJuly.TempMaxC)
	assert.Less(t, northJuly.TempMinC, northJuly.TempMaxC)
}

func TestOpenMeteoClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/forecast":
			assert.Equal(t, "2025-06-13", q.Get("start_date"))
			assert.Equal(t, "2025-06-13", q.Get("end_date"))
			_, _ = w.Write([]byte(`{"daily":{"time":["2025-06-13"],"temperature_2m_max":[27.4],"temperature_2m_min":[18.1],"precipitation_probability_max":[35]}}`))
		case "/archive":
			assert.Equal(t, "2024-06-10", q.Get("start_date"))
			assert.Equal(t, "2024-06-16", q.Get("end_date"))
			_, _ = w.Write([]byte(`{"daily":{"time":["2024-06-10","2024-06-11","2024-06-12","2024-06-13"],` +
				`"temperature_2m_max":[20,22,null,24],"temperature_2m_min":[10,12,null,14],` +
				`"precipitation_sum":[0,1.2,0.05,3]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewOpenMeteoClient(srv.URL+"/forecast", srv.URL+"/archive", time.Second)
	date := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)

	f, err := c.Forecast(context.Background(), date, lisbon)
	require.NoError(t, err)
	assert.Equal(t, Daily{TempMinC: 18.1, TempMaxC: 27.4, PrecipitationProbability: 0.35}, f)

	s, err := c.Seasonal(context.Background(), date, lisbon)
	require.NoError(t, err)
	assert.Equal(t, 22.0, s.TempMaxC)
	assert.Equal(t, 12.0, s.TempMinC)
	assert.Equal(t, 0.5, s.PrecipitationProbability)

	bad := NewOpenMeteoClient(srv.URL+"/missing", srv.URL+"/missing", time.Second)
	_, err = bad.Forecast(context.Background(), date, lisbon)
	assert.ErrorContains(t, err, "404")
}
