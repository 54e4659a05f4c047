package readings

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// mockSource serves a synthetic reading while the store is unavailable.
// Every drift call nudges each measurement by a small random step.
type mockSource struct {
	mu    sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
	state View
}

func newMockSource(rng *rand.Rand, now func() time.Time) *mockSource {
	username := "Lakshya"
	return &mockSource{
		rng: rng,
		now: now,
		state: View{
			ID:          1,
			PM10:        ptr(35.2),
			PM25:        ptr(12.8),
			CO2:         ptr(450),
			Humidity:    ptr(65.5),
			Temperature: ptr(24.3),
			Username:    &username,
			Timestamp:   now().Format(TimestampLayout),
		},
	}
}

// drift advances the synthetic reading and returns a copy of it.
func (m *mockSource) drift() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.PM10 = ptr(round1(*m.state.PM10 + m.jitter(2)))
	m.state.PM25 = ptr(round1(*m.state.PM25 + m.jitter(1)))
	m.state.CO2 = ptr(math.Round(*m.state.CO2 + m.jitter(10)))
	m.state.Humidity = ptr(round1(*m.state.Humidity + m.jitter(1)))
	m.state.Temperature = ptr(round1(*m.state.Temperature + m.jitter(0.5)))
	m.state.Timestamp = m.now().Format(TimestampLayout)

	return m.state
}

// dashboardRow projects the current synthetic reading without advancing it.
func (m *mockSource) dashboardRow() DashboardRow {
	m.mu.Lock()
	defer m.mu.Unlock()

	return DashboardRow{
		ID:        m.state.ID,
		PM25:      m.state.PM25,
		Humidity:  m.state.Humidity,
		Timestamp: m.state.Timestamp,
	}
}

// jitter returns a uniform value in [-spread, spread).
func (m *mockSource) jitter(spread float64) float64 {
	return (m.rng.Float64()*2 - 1) * spread
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func ptr(v float64) *float64 {
	return &v
}
