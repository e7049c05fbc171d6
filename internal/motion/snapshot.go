package motion

import "time"

// Snapshot is everything the driver info panel shows, derived from one history.
type Snapshot struct {
	Status            Status        `json:"status"`
	StationaryMinutes int           `json:"stationary_minutes"`
	SpeedKmh          float64       `json:"speed_kmh"`
	Heading           string        `json:"heading,omitempty"`
	Dwelling          bool          `json:"dwelling"`
	LastSeen          time.Time     `json:"last_seen"`
	Age               time.Duration `json:"age"`
}

// Summarize classifies history as of now and collects the per-driver figures
// alongside the status. An empty history yields an Offline snapshot.
func Summarize(history []Sample, now time.Time) (Snapshot, error) {
	status, err := ClassifyStatus(history, now)
	if err != nil {
		return Snapshot{Status: Offline}, err
	}
	snap := Snapshot{Status: status}
	if len(history) == 0 {
		return snap, nil
	}

	latest := history[len(history)-1]
	snap.LastSeen = latest.Timestamp
	snap.Age = now.Sub(latest.Timestamp)
	if latest.HeadingDegrees != nil {
		snap.Heading = CompassLabel(*latest.HeadingDegrees)
	}

	if snap.StationaryMinutes, err = StationaryMinutes(history); err != nil {
		return snap, err
	}
	if len(history) >= 2 {
		if snap.SpeedKmh, err = SpeedKmh(history[len(history)-2], latest); err != nil {
			return snap, err
		}
	}
	if snap.Dwelling, err = IsStationary(history, DefaultStationaryOptions()); err != nil {
		return snap, err
	}
	return snap, nil
}
