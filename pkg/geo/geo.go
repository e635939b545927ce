package geo

import (
	"math"

	custom_error "github.com/Vaibhavsh0120/Connect2Give/pkg/errors"
)

const earthRadiusKm = 6371.0

// Coordinates is a WGS84 point. Distances between points are great-circle
// approximations, which is what the dispatch heuristics cost against.
type Coordinates struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

func NewCoordinates(lat, lon float64) (Coordinates, error) {
	c := Coordinates{Latitude: lat, Longitude: lon}
	if err := c.Validate(); err != nil {
		return Coordinates{}, err
	}
	return c, nil
}

func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return &custom_error.InvalidCoordinateError{Latitude: c.Latitude, Longitude: c.Longitude}
	}
	return nil
}

// Distance returns the haversine great-circle distance in kilometers.
func Distance(from, to Coordinates) float64 {
	lat1 := from.Latitude * math.Pi / 180
	lat2 := to.Latitude * math.Pi / 180
	dLat := (to.Latitude - from.Latitude) * math.Pi / 180
	dLon := (to.Longitude - from.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// RoundKm trims a distance to two decimals for API responses.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
