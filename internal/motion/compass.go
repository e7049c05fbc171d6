package motion

import "math"

var compassLabels = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// CompassLabel maps a bearing in degrees to one of the 8 compass points.
// Each label owns the 45 degree sector starting at its bearing, so 0 to 44.99
// is N and 45 to 89.99 is NE. Any real value is wrapped into [0, 360); NaN
// and infinities map to N.
func CompassLabel(heading float64) string {
	if math.IsNaN(heading) || math.IsInf(heading, 0) {
		return compassLabels[0]
	}
	h := math.Mod(heading, 360)
	if h < 0 {
		h += 360
	}
	idx := int(math.Floor(h/45)) % 8
	return compassLabels[idx]
}
