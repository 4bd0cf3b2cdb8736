package detector

import "github.com/tidwall/geodesic"

// Distance returns the geodesic surface distance in kilometers between two
// points given in decimal degrees, on the WGS-84 ellipsoid. Coordinates are
// not validated; out-of-range values yield whatever the geodesic solver
// produces.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	var meters float64
	geodesic.WGS84.Inverse(lat1, lon1, lat2, lon2, &meters, nil, nil)
	return meters / 1000.0
}
