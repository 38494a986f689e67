// Package geospatial provides great-circle helpers and an in-memory spatial
// index for nearest-neighbor and radius queries over lat/lon points.
package geospatial

import "math"

// EarthRadiusM is the mean Earth radius in meters.
const EarthRadiusM = 6371000.0

// MetersPerDegree approximates the length of one degree of latitude.
const MetersPerDegree = 111000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// Offset shifts a point by dy meters north and dx meters east using a
// flat-earth approximation around lat.
func Offset(lat, lon, dy, dx float64) (float64, float64) {
	newLat := lat + dy/MetersPerDegree
	newLon := lon + dx/(MetersPerDegree*math.Cos(radians(lat)))
	return newLat, newLon
}

// unitVector maps a coordinate onto the unit sphere. Euclidean (chord)
// distance between unit vectors is monotonic in great-circle distance.
func unitVector(p Point) [3]float64 {
	lat, lon := radians(p.Lat), radians(p.Lon)
	cl := math.Cos(lat)
	return [3]float64{cl * math.Cos(lon), cl * math.Sin(lon), math.Sin(lat)}
}

// chordForMeters converts a surface distance to the squared chord length.
func chordForMeters(m float64) float64 {
	theta := math.Min(m/EarthRadiusM, math.Pi)
	c := 2 * math.Sin(theta/2)
	return c * c
}
