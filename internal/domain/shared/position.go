package shared

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances
const EarthRadiusMeters = 6371000.0

// Position represents an immutable geographic coordinate
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewPosition creates a new position with validation
func NewPosition(latitude, longitude float64) (Position, error) {
	if latitude < -90 || latitude > 90 {
		return Position{}, NewValidationError("latitude", fmt.Sprintf("must be in [-90, 90], got %v", latitude))
	}
	if longitude < -180 || longitude > 180 {
		return Position{}, NewValidationError("longitude", fmt.Sprintf("must be in [-180, 180], got %v", longitude))
	}
	return Position{Latitude: latitude, Longitude: longitude}, nil
}

// DistanceTo calculates the great-circle distance in meters to another
// position using the haversine formula
func (p Position) DistanceTo(other Position) float64 {
	lat1 := p.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - p.Latitude) * math.Pi / 180
	dLon := (other.Longitude - p.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Equals reports whether two positions are exactly equal.
// Arrival tests depend on exact equality, which Step guarantees on its
// terminal tick.
func (p Position) Equals(other Position) bool {
	return p.Latitude == other.Latitude && p.Longitude == other.Longitude
}

// Step moves from this position toward target by at most stepDistance
// meters. It returns the new position and the distance actually covered.
// Movement interpolates linearly in latitude/longitude space, which is an
// acceptable approximation at delivery scales; when the remaining distance
// fits within the step, the target is assigned directly so that the arrival
// check observes exact coordinate equality.
func (p Position) Step(target Position, stepDistance float64) (Position, float64) {
	distance := p.DistanceTo(target)
	if distance == 0 {
		return target, 0
	}
	if stepDistance >= distance {
		return target, distance
	}
	fraction := stepDistance / distance
	next := Position{
		Latitude:  p.Latitude + fraction*(target.Latitude-p.Latitude),
		Longitude: p.Longitude + fraction*(target.Longitude-p.Longitude),
	}
	return next, stepDistance
}

// FindNearestPosition returns the index of the nearest position in targets
// and its distance. Returns -1 and 0 if targets is empty. Ties keep the
// earliest index.
func FindNearestPosition(from Position, targets []Position) (int, float64) {
	if len(targets) == 0 {
		return -1, 0
	}

	nearest := 0
	minDistance := from.DistanceTo(targets[0])

	for i, target := range targets[1:] {
		distance := from.DistanceTo(target)
		if distance < minDistance {
			minDistance = distance
			nearest = i + 1
		}
	}

	return nearest, minDistance
}

func (p Position) String() string {
	return fmt.Sprintf("Position(%.6f, %.6f)", p.Latitude, p.Longitude)
}
