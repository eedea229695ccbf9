package geo

import (
	"math"

	"github.com/mmcloughlin/geohash"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

const earthRadiusKm = 6371

// CellPrecision is the geohash length used for location cells (~5 km).
const CellPrecision = 5

// Distance returns the great-circle distance between two points in kilometers
// using the Haversine formula.
func Distance(a, b types.Coordinates) float64 {
	lat1Rad := a.Latitude * math.Pi / 180
	lon1Rad := a.Longitude * math.Pi / 180
	lat2Rad := b.Latitude * math.Pi / 180
	lon2Rad := b.Longitude * math.Pi / 180

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// Centroid is the arithmetic mean of the given coordinates.
func Centroid(points []types.Coordinates) types.Coordinates {
	if len(points) == 0 {
		return types.Coordinates{}
	}
	var lat, lon float64
	for _, p := range points {
		lat += p.Latitude
		lon += p.Longitude
	}
	n := float64(len(points))
	return types.Coordinates{Latitude: lat / n, Longitude: lon / n}
}

// Cell returns the location cell key of a point.
func Cell(p types.Coordinates) string {
	return geohash.EncodeWithPrecision(p.Latitude, p.Longitude, CellPrecision)
}

// CellCenter returns the center of a location cell.
func CellCenter(cell string) types.Coordinates {
	lat, lon := geohash.DecodeCenter(cell)
	return types.Coordinates{Latitude: lat, Longitude: lon}
}
