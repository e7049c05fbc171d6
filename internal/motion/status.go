package motion

import (
	"fmt"
	"time"
)

// Status is the discrete motion classification of a driver.
type Status int

const (
	Moving Status = iota
	Slow
	Warning
	Critical
	Offline
)

const (
	// OfflineAfter is how stale the latest sample may be before a driver is offline.
	OfflineAfter = 5 * time.Minute

	CriticalMinutes = 15
	WarningMinutes  = 10
	SlowMinutes     = 5

	// SlowSpeedKmh is the speed under which a non-stationary driver is still slow.
	SlowSpeedKmh = 5.0
)

var statusNames = [...]string{
	Moving:   "moving",
	Slow:     "slow",
	Warning:  "warning",
	Critical: "critical",
	Offline:  "offline",
}

var statusLabels = [...]string{
	Moving:   "Moving",
	Slow:     "Slow/Stopped",
	Warning:  "Stationary (10+ min)",
	Critical: "Critical Alert (15+ min)",
	Offline:  "Offline",
}

var markerColors = [...]string{
	Moving:   "#10B981",
	Slow:     "#F59E0B",
	Warning:  "#F97316",
	Critical: "#EF4444",
	Offline:  "#6B7280",
}

func (s Status) valid() bool {
	return s >= Moving && s <= Offline
}

func (s Status) String() string {
	if !s.valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Label is the operator-facing description.
func (s Status) Label() string {
	if !s.valid() {
		return "Unknown"
	}
	return statusLabels[s]
}

// MarkerColor is the hex colour of the map marker for s.
func (s Status) MarkerColor() string {
	if !s.valid() {
		return markerColors[Offline]
	}
	return markerColors[s]
}

// Severity orders statuses for alert sorting; higher is worse.
func (s Status) Severity() int {
	return int(s)
}

// IsStationary is true for the statuses shown in the stationary alert list.
func (s Status) IsStationary() bool {
	return s == Slow || s == Warning || s == Critical
}

// NeedsAttention is true when an operator should act.
func (s Status) NeedsAttention() bool {
	return s == Critical || s == Offline
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("motion: unknown status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseStatus converts a lowercase status name back into a Status.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return Offline, fmt.Errorf("motion: unknown status %q", name)
}

// ClassifyStatus derives the driver status from history as of now.
//
// Rules, first match wins: no samples or a latest sample older than
// OfflineAfter is Offline; a stationary run of 15, 10 or 5 minutes is
// Critical, Warning or Slow; a last-pair speed under SlowSpeedKmh is Slow;
// anything else is Moving.
func ClassifyStatus(history []Sample, now time.Time) (Status, error) {
	if len(history) == 0 {
		return Offline, nil
	}
	latest := history[len(history)-1]
	if err := latest.Coordinate().Validate(); err != nil {
		return Offline, err
	}
	if now.Sub(latest.Timestamp) > OfflineAfter {
		return Offline, nil
	}

	minutes, err := StationaryMinutes(history)
	if err != nil {
		return Offline, err
	}
	switch {
	case minutes >= CriticalMinutes:
		return Critical, nil
	case minutes >= WarningMinutes:
		return Warning, nil
	case minutes >= SlowMinutes:
		return Slow, nil
	}

	if len(history) >= 2 {
		speed, err := SpeedKmh(history[len(history)-2], latest)
		if err != nil {
			return Offline, err
		}
		if speed < SlowSpeedKmh {
			return Slow, nil
		}
	}
	return Moving, nil
}
