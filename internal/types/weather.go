package types

import "time"

type WeatherKind string

const (
	WeatherKindForecast WeatherKind = "forecast"
	WeatherKindSeasonal WeatherKind = "seasonal"
)

// WeatherSample annotates one day at one location cell.
type WeatherSample struct {
	Date                     time.Time   `json:"date"`
	Cell                     string      `json:"cell"`
	Kind                     WeatherKind `json:"kind"`
	TempMinC                 float64     `json:"tempMinC"`
	TempMaxC                 float64     `json:"tempMaxC"`
	PrecipitationProbability float64     `json:"precipitationProbability"`
	FetchedAt                time.Time   `json:"fetchedAt"`
	Approximate              bool        `json:"approximate"`
}
