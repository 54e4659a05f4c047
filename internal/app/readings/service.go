package readings

import (
	"context"
	"math/rand/v2"
	"time"

	"aqimonitor/internal/pkg/logx"
)

// DashboardSize is the number of rows returned by Dashboard.
const DashboardSize = 10

// View is the wire form of a Reading.
type View struct {
	ID          int64    `json:"id"`
	PM10        *float64 `json:"pm10"`
	PM25        *float64 `json:"pm25"`
	CO2         *float64 `json:"co2"`
	Humidity    *float64 `json:"humidity"`
	Temperature *float64 `json:"temperature"`
	Username    *string  `json:"username"`
	Timestamp   string   `json:"timestamp"`
}

// DashboardRow is the dashboard projection of a Reading.
type DashboardRow struct {
	ID        int64    `json:"id"`
	PM25      *float64 `json:"pm25"`
	Humidity  *float64 `json:"humidity"`
	Timestamp string   `json:"timestamp"`
}

// NewView renders r for the wire.
func NewView(r Reading) View {
	return View{
		ID:          r.ID,
		PM10:        r.PM10,
		PM25:        r.PM25,
		CO2:         r.CO2,
		Humidity:    r.Humidity,
		Temperature: r.Temperature,
		Username:    r.Username,
		Timestamp:   r.Timestamp.Format(TimestampLayout),
	}
}

// Service reads sensor data and substitutes synthetic data when the store fails.
type Service struct {
	store Store
	mock  *mockSource
}

// NewService constructs a Service over store.
func NewService(store Store) *Service {
	return newService(store, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)), time.Now)
}

func newService(store Store, rng *rand.Rand, now func() time.Time) *Service {
	return &Service{store: store, mock: newMockSource(rng, now)}
}

// Latest returns the newest reading, nil when the store holds none.
// A failing store yields a drifting synthetic reading instead of an error.
func (s *Service) Latest(ctx context.Context) *View {
	r, err := s.store.Latest(ctx)
	if err != nil {
		logx.Warn("readings: store failed, serving mock reading", "error", err)
		v := s.mock.drift()
		return &v
	}
	if r == nil {
		return nil
	}

	v := NewView(*r)
	return &v
}

// Dashboard returns up to DashboardSize recent readings, newest first.
// A failing store yields a single synthetic row.
func (s *Service) Dashboard(ctx context.Context) []DashboardRow {
	recent, err := s.store.Recent(ctx, DashboardSize)
	if err != nil {
		logx.Warn("readings: store failed, serving mock dashboard", "error", err)
		return []DashboardRow{s.mock.dashboardRow()}
	}

	rows := make([]DashboardRow, 0, len(recent))
	for _, r := range recent {
		rows = append(rows, DashboardRow{
			ID:        r.ID,
			PM25:      r.PM25,
			Humidity:  r.Humidity,
			Timestamp: r.Timestamp.Format(TimestampLayout),
		})
	}
	return rows
}
