package motion

// SpeedKmh returns the average speed between two samples in km/h.
//
// Arguments are taken in the order given; callers pass (earlier, later).
// Elapsed time is absolute, so swapping them yields the same value. A zero
// elapsed time yields 0.
func SpeedKmh(earlier, later Sample) (float64, error) {
	meters, err := DistanceMeters(earlier.Coordinate(), later.Coordinate())
	if err != nil {
		return 0, err
	}
	elapsed := later.Timestamp.Sub(earlier.Timestamp)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	hours := elapsed.Hours()
	if hours == 0 {
		return 0, nil
	}
	return (meters / 1000) / hours, nil
}
