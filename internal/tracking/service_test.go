package tracking

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet_portal/internal/models"
	"fleet_portal/internal/motion"
	"fleet_portal/internal/store"
)

var (
	now    = time.Date(2024, 5, 6, 14, 30, 0, 0, time.UTC)
	depotL = -33.8688
	depotG = 151.2093
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *store.Memory
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, ctx: context.Background(), store: store.NewMemory()}
}

// driver creates a driver on an active shift.
func (f *fixture) driver(name string) (models.Driver, models.Shift) {
	d := &models.Driver{FullName: name, Email: name + "@example.com"}
	require.NoError(f.t, f.store.CreateUser(f.ctx, &models.User{Email: d.Email, Role: models.RoleDriver}, d))
	van := &models.Vehicle{Registration: "REG-" + name, Type: "van", InService: true}
	require.NoError(f.t, f.store.CreateVehicle(f.ctx, van))
	s := &models.Shift{DriverID: d.ID, VehicleID: &van.ID, StartedAt: now.Add(-2 * time.Hour)}
	require.NoError(f.t, f.store.StartShift(f.ctx, s))
	return *d, *s
}

// fix records a location dLat degrees north of the depot, minutesAgo before now.
func (f *fixture) fix(d models.Driver, s models.Shift, dLat float64, minutesAgo int) {
	require.NoError(f.t, f.store.SaveLocation(f.ctx, &models.LocationLog{
		DriverID:  d.ID,
		ShiftID:   s.ID,
		Latitude:  depotL + dLat,
		Longitude: depotG,
		Timestamp: now.Add(-time.Duration(minutesAgo) * time.Minute),
	}))
}

func (f *fixture) stationary(d models.Driver, s models.Shift, minutes int) {
	f.fix(d, s, 0, minutes)
	f.fix(d, s, 0, 0)
}

func TestBoard(t *testing.T) {
	f := newFixture(t)

	moving, ms := f.driver("moving")
	f.fix(moving, ms, 0, 1)
	f.fix(moving, ms, 0.01, 0)

	critical, cs := f.driver("critical")
	f.stationary(critical, cs, 16)

	offline, offs := f.driver("offline")
	f.fix(offline, offs, 0, 12)
	f.fix(offline, offs, 0.02, 10)

	f.driver("silent")

	warning, ws := f.driver("warning")
	f.stationary(warning, ws, 11)

	svc := NewService(f.store, nil)
	board, err := svc.Board(f.ctx, now)
	require.NoError(t, err)
	require.Len(t, board.Drivers, 5)

	got := map[string]motion.Status{}
	for _, v := range board.Drivers {
		got[v.FullName] = v.Status
		assert.Equal(t, v.Status.Label(), v.StatusLabel)
		assert.Equal(t, v.Status.MarkerColor(), v.MarkerColor)
		require.NotNil(t, v.Vehicle)
		assert.Equal(t, "REG-"+v.FullName, v.Vehicle.Registration)
	}
	assert.Equal(t, map[string]motion.Status{
		"moving":   motion.Moving,
		"critical": motion.Critical,
		"offline":  motion.Offline,
		"silent":   motion.Offline,
		"warning":  motion.Warning,
	}, got)
	assert.Equal(t, Counts{Moving: 1, Stationary: 2, Offline: 2}, board.Counts)
	assert.Equal(t, now, board.GeneratedAt)
}

func TestAlerts_SortedByStationaryMinutes(t *testing.T) {
	f := newFixture(t)
	slow, ss := f.driver("slow")
	f.stationary(slow, ss, 6)
	crit, cs := f.driver("crit")
	f.stationary(crit, cs, 18)
	warn, ws := f.driver("warn")
	f.stationary(warn, ws, 12)
	mov, ms := f.driver("mov")
	f.fix(mov, ms, 0, 1)
	f.fix(mov, ms, 0.01, 0)

	alerts, err := NewService(f.store, nil).Alerts(f.ctx, now)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, "crit", alerts[0].FullName)
	assert.Equal(t, 18, alerts[0].StationaryMinutes)
	assert.Equal(t, "warn", alerts[1].FullName)
	assert.Equal(t, "slow", alerts[2].FullName)
}

func TestDriver(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store, nil)

	_, err := svc.Driver(f.ctx, 999, now)
	assert.ErrorIs(t, err, ErrUnknownDriver)

	d, s := f.driver("dana")
	heading := 181.0
	f.fix(d, s, 0, 8)
	require.NoError(t, f.store.SaveLocation(f.ctx, &models.LocationLog{
		DriverID: d.ID, ShiftID: s.ID, Latitude: depotL, Longitude: depotG,
		Heading: &heading, Timestamp: now.Add(-time.Minute),
	}))

	detail, err := svc.Driver(f.ctx, d.ID, now)
	require.NoError(t, err)
	assert.Equal(t, motion.Slow, detail.Status)
	assert.Equal(t, 7, detail.StationaryMinutes)
	assert.Equal(t, "S", detail.Heading)
	assert.Equal(t, 0.0, detail.SpeedKmh)
	assert.False(t, detail.Dwelling)
	require.NotNil(t, detail.LastSeen)
	assert.Equal(t, now.Add(-time.Minute), *detail.LastSeen)
	assert.Len(t, detail.Trail, 2)
	assert.Equal(t, s.ID, detail.ShiftID)

	_, err = f.store.EndShift(f.ctx, s.ID)
	require.NoError(t, err)
	detail, err = svc.Driver(f.ctx, d.ID, now)
	require.NoError(t, err)
	assert.Zero(t, detail.ShiftID)
	assert.Nil(t, detail.Vehicle)
	assert.Equal(t, "dana", detail.FullName)
}

func TestIngest(t *testing.T) {
	f := newFixture(t)
	hub := NewHub(10)
	defer hub.Close()
	sub := newRecordingSub()
	hub.Register(sub)
	svc := NewService(f.store, hub)

	d, _ := f.driver("ivan")

	_, err := svc.Ingest(f.ctx, d.ID, LocationInput{Latitude: 95, Longitude: 0, Timestamp: now}, now)
	assert.ErrorIs(t, err, motion.ErrInvalidCoordinate)

	loner := &models.Driver{FullName: "loner"}
	require.NoError(t, f.store.CreateUser(f.ctx, &models.User{Email: "loner@example.com"}, loner))
	_, err = svc.Ingest(f.ctx, loner.ID, LocationInput{Latitude: depotL, Longitude: depotG}, now)
	assert.ErrorIs(t, err, ErrNoActiveShift)

	view, err := svc.Ingest(f.ctx, d.ID, LocationInput{Latitude: depotL, Longitude: depotG, Timestamp: now.Add(-time.Minute)}, now)
	require.NoError(t, err)
	assert.Equal(t, motion.Moving, view.Status)
	require.NotNil(t, view.Latest)
	assert.Nil(t, view.Latest.HeadingDegrees)

	view, err = svc.Ingest(f.ctx, d.ID, LocationInput{Latitude: depotL, Longitude: depotG + 0.01}, now)
	require.NoError(t, err)
	assert.Equal(t, motion.Moving, view.Status)
	require.NotNil(t, view.Latest.HeadingDegrees)
	assert.InDelta(t, 90, *view.Latest.HeadingDegrees, 0.1)
	assert.Equal(t, now, view.Latest.Timestamp)

	logs, err := f.store.RecentLocations(f.ctx, d.ID, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	first := sub.next(t)
	assert.Equal(t, "location", first.Type)
	assert.Equal(t, d.ID, first.Driver.DriverID)
	second := sub.next(t)
	assert.Equal(t, motion.Moving, second.Driver.Status)
}

func TestLiveMapAndTrail(t *testing.T) {
	f := newFixture(t)
	a, as := f.driver("alpha")
	f.stationary(a, as, 16)
	f.driver("beta")

	svc := NewService(f.store, nil)
	fc, err := svc.LiveMap(f.ctx, now)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	raw, err := json.Marshal(fc)
	require.NoError(t, err)
	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Type)
	feat := decoded.Features[0]
	assert.Equal(t, "Point", feat.Geometry.Type)
	assert.InDeltaSlice(t, []float64{depotG, depotL}, feat.Geometry.Coordinates, 1e-9)
	assert.Equal(t, "critical", feat.Properties["status"])
	assert.Equal(t, "#EF4444", feat.Properties["marker_color"])
	assert.Equal(t, "REG-alpha", feat.Properties["registration"])

	trail, err := svc.Trail(f.ctx, a.ID)
	require.NoError(t, err)
	raw, err = json.Marshal(trail)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"LineString"`)
	assert.EqualValues(t, 2, trail.Properties["points"])

	_, err = svc.Trail(f.ctx, 12345)
	assert.ErrorIs(t, err, ErrNoLocations)
}

func TestLocationInput_UnmarshalJSON(t *testing.T) {
	var in LocationInput
	require.NoError(t, json.Unmarshal([]byte(`{"latitude":1,"longitude":2,"timestamp":"2024-05-06T14:30:00.250"}`), &in))
	assert.Equal(t, time.Date(2024, 5, 6, 14, 30, 0, 250_000_000, time.UTC), in.Timestamp)
	assert.Equal(t, 1.0, in.Latitude)

	require.NoError(t, json.Unmarshal([]byte(`{"latitude":1,"longitude":2,"timestamp":"2024-05-06T16:30:00+02:00"}`), &in))
	assert.True(t, in.Timestamp.Equal(now))

	require.NoError(t, json.Unmarshal([]byte(`{"latitude":1,"longitude":2,"heading":45.5}`), &in))
	assert.True(t, in.Timestamp.IsZero())
	require.NotNil(t, in.Heading)
	assert.Equal(t, 45.5, *in.Heading)

	assert.Error(t, json.Unmarshal([]byte(`{"latitude":1,"timestamp":"yesterday"}`), &in))
}

func TestIngest_BackfilledFixKeepsTimestampOrder(t *testing.T) {
	f := newFixture(t)
	hub := NewHub(10)
	defer hub.Close()
	sub := newRecordingSub()
	hub.Register(sub)
	svc := NewService(f.store, hub)

	d, s := f.driver("omar")
	f.stationary(d, s, 12)

	// A buffered fix 1 km away from 20 minutes ago arrives late.
	late := now.Add(-20 * time.Minute)
	view, err := svc.Ingest(f.ctx, d.ID, LocationInput{Latitude: depotL + 0.009, Longitude: depotG, Timestamp: late}, now)
	require.NoError(t, err)
	assert.Equal(t, motion.Warning, view.Status)
	assert.Equal(t, 12, view.StationaryMinutes)
	require.NotNil(t, view.Latest)
	assert.Equal(t, now, view.Latest.Timestamp)

	update := sub.next(t)
	assert.Equal(t, view.Status, update.Driver.Status)

	board, err := svc.Board(f.ctx, now)
	require.NoError(t, err)
	require.Len(t, board.Drivers, 1)
	assert.Equal(t, view.Status, board.Drivers[0].Status)
	assert.Equal(t, view.StationaryMinutes, board.Drivers[0].StationaryMinutes)

	logs, err := f.store.RecentLocations(f.ctx, d.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.True(t, logs[0].Timestamp.Equal(late))
	assert.Nil(t, logs[0].Heading, "no earlier fix to take a bearing from")
}

func TestIngest_BackfillHeadingUsesPrecedingFix(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.store, nil)
	d, s := f.driver("pia")
	f.fix(d, s, 0, 10)
	f.fix(d, s, 0, 0)

	// Between the two stored fixes, 0.01 degrees east of the earlier one.
	view, err := svc.Ingest(f.ctx, d.ID, LocationInput{Latitude: depotL, Longitude: depotG + 0.01, Timestamp: now.Add(-5 * time.Minute)}, now)
	require.NoError(t, err)
	assert.Equal(t, now, view.Latest.Timestamp)

	logs, err := f.store.RecentLocations(f.ctx, d.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	require.NotNil(t, logs[1].Heading)
	assert.InDelta(t, 90, *logs[1].Heading, 0.1)
}
