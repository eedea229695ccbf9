package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const (
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	DefaultArchiveURL  = "https://archive-api.open-meteo.com/v1/archive"

	// seasonalWindowDays is the half-width of the prior-year window averaged
	// for far dates.
	seasonalWindowDays = 3
	wetDayMillimetres  = 0.1
)

// OpenMeteoClient reads daily forecasts and historical archives from
// Open-Meteo.
type OpenMeteoClient struct {
	forecastURL string
	archiveURL  string
	client      *http.Client
}

func NewOpenMeteoClient(forecastURL, archiveURL string, timeout time.Duration) *OpenMeteoClient {
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}
	if archiveURL == "" {
		archiveURL = DefaultArchiveURL
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &OpenMeteoClient{
		forecastURL: forecastURL,
		archiveURL:  archiveURL,
		client:      &http.Client{Timeout: timeout},
	}
}

var _ Fetcher = (*OpenMeteoClient)(nil)

type dailyResponse struct {
	Daily struct {
		Time                        []string   `json:"time"`
		Temperature2mMax            []*float64 `json:"temperature_2m_max"`
		Temperature2mMin            []*float64 `json:"temperature_2m_min"`
		PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
		PrecipitationSum            []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

func (c *OpenMeteoClient) Forecast(ctx context.Context, date time.Time, p types.Coordinates) (Daily, error) {
	resp, err := c.get(ctx, c.forecastURL, p, date, date,
		"temperature_2m_max,temperature_2m_min,precipitation_probability_max")
	if err != nil {
		return Daily{}, err
	}
	d := resp.Daily
	if len(d.Time) == 0 || len(d.Temperature2mMax) == 0 || len(d.Temperature2mMin) == 0 ||
		d.Temperature2mMax[0] == nil || d.Temperature2mMin[0] == nil {
		return Daily{}, errors.New("forecast response has no daily values")
	}
	out := Daily{TempMinC: *d.Temperature2mMin[0], TempMaxC: *d.Temperature2mMax[0]}
	if len(d.PrecipitationProbabilityMax) > 0 && d.PrecipitationProbabilityMax[0] != nil {
		out.PrecipitationProbability = *d.PrecipitationProbabilityMax[0] / 100
	}
	return out, nil
}

// Seasonal averages the same calendar window one year earlier. The
// precipitation probability is the share of wet days in that window.
func (c *OpenMeteoClient) Seasonal(ctx context.Context, date time.Time, p types.Coordinates) (Daily, error) {
	center := date.AddDate(-1, 0, 0)
	resp, err := c.get(ctx, c.archiveURL, p,
		center.AddDate(0, 0, -seasonalWindowDays), center.AddDate(0, 0, seasonalWindowDays),
		"temperature_2m_max,temperature_2m_min,precipitation_sum")
	if err != nil {
		return Daily{}, err
	}

	var sumMin, sumMax float64
	var n, wet, precipDays int
	d := resp.Daily
	for i := range d.Time {
		if i < len(d.Temperature2mMax) && i < len(d.Temperature2mMin) &&
			d.Temperature2mMax[i] != nil && d.Temperature2mMin[i] != nil {
			sumMax += *d.Temperature2mMax[i]
			sumMin += *d.Temperature2mMin[i]
			n++
		}
		if i < len(d.PrecipitationSum) && d.PrecipitationSum[i] != nil {
			precipDays++
			if *d.PrecipitationSum[i] >= wetDayMillimetres {
				wet++
			}
		}
	}
	if n == 0 {
		return Daily{}, errors.New("archive response has no daily values")
	}
	out := Daily{TempMinC: round1(sumMin / float64(n)), TempMaxC: round1(sumMax / float64(n))}
	if precipDays > 0 {
		out.PrecipitationProbability = float64(wet) / float64(precipDays)
	}
	return out, nil
}

func (c *OpenMeteoClient) get(ctx context.Context, base string, p types.Coordinates, from, to time.Time, daily string) (*dailyResponse, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(p.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(p.Longitude, 'f', 4, 64))
	q.Set("daily", daily)
	q.Set("timezone", "UTC")
	q.Set("start_date", from.Format(dateLayout))
	q.Set("end_date", to.Format(dateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather source returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out dailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("malformed weather response: %w", err)
	}
	return &out, nil
}
