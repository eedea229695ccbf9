package weather

import (
	"math"
	"time"
)

type band struct {
	maxAbsLat float64
	meanC     float64
	// amplitudeC is the swing of the monthly mean around meanC over a year
	amplitudeC float64
	rangeC     float64
	precip     float64
}

// bands is a coarse climatology by absolute latitude.
var bands = []band{
	{maxAbsLat: 15, meanC: 27, amplitudeC: 1.5, rangeC: 8, precip: 0.55},
	{maxAbsLat: 30, meanC: 23, amplitudeC: 5, rangeC: 10, precip: 0.30},
	{maxAbsLat: 45, meanC: 15, amplitudeC: 9, rangeC: 10, precip: 0.30},
	{maxAbsLat: 60, meanC: 8, amplitudeC: 10, rangeC: 8, precip: 0.45},
	{maxAbsLat: 90, meanC: -5, amplitudeC: 13, rangeC: 7, precip: 0.40},
}

// Climatology returns a rough typical day for a latitude and month. Northern
// summers peak in July, southern ones in January.
func Climatology(lat float64, month time.Month) Daily {
	b := bands[len(bands)-1]
	for _, candidate := range bands {
		if math.Abs(lat) <= candidate.maxAbsLat {
			b = candidate
			break
		}
	}
	season := math.Cos(float64(month-time.July) * math.Pi / 6)
	if lat < 0 {
		season = -season
	}
	mean := b.meanC + b.amplitudeC*season
	return Daily{
		TempMinC:                 round1(mean - b.rangeC/2),
		TempMaxC:                 round1(mean + b.rangeC/2),
		PrecipitationProbability: b.precip,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
