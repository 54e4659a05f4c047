/*
Package readings serves air-quality sensor readings: the latest sample, the dashboard
history, a mock fallback while the store is down, and a websocket feed that pushes the
latest sample to connected dashboards.
*/
package readings

import (
	"context"
	"errors"
	"time"
)

// TimestampLayout is the wire format of reading timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// ErrStoreUnavailable indicates that the readings table could not be queried.
var ErrStoreUnavailable = errors.New("readings: store unavailable")

// Reading is one sensor sample. Every measurement is nullable in storage.
type Reading struct {
	ID          int64
	PM10        *float64
	PM25        *float64
	CO2         *float64
	Humidity    *float64
	Temperature *float64
	Username    *string
	Timestamp   time.Time
}

// Store is the readings persistence port.
type Store interface {
	// Latest returns the newest reading, or nil without error when there is none.
	Latest(ctx context.Context) (*Reading, error)

	// Recent returns up to limit readings, newest first.
	Recent(ctx context.Context, limit int) ([]Reading, error)
}

// UnavailableStore is injected when the database could not be reached at startup.
type UnavailableStore struct{}

func (UnavailableStore) Latest(context.Context) (*Reading, error) {
	return nil, ErrStoreUnavailable
}

func (UnavailableStore) Recent(context.Context, int) ([]Reading, error) {
	return nil, ErrStoreUnavailable
}
