package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle math.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometers between two
// WGS84 points using the haversine formula. The function is total over the
// valid latitude/longitude domain (-90..90, -180..180): it is symmetric,
// never negative and returns 0 for coincident points. Out-of-range inputs
// are a caller contract violation; values are fed to the formula as-is,
// without clamping.
func DistanceKm(latA, lngA, latB, lngB float64) float64 {
	phiA := toRadians(latA)
	phiB := toRadians(latB)
	dPhi := toRadians(latB - latA)
	dLambda := toRadians(lngB - lngA)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)

	a := sinPhi*sinPhi + math.Cos(phiA)*math.Cos(phiB)*sinLambda*sinLambda
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
