package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aqimonitor/internal/app/readings"
)

// ReadingStore implements readings.Store on PostgreSQL.
type ReadingStore struct {
	pool *pgxpool.Pool
}

var _ readings.Store = (*ReadingStore)(nil)

// NewReadingStore constructs a ReadingStore.
func NewReadingStore(pool *pgxpool.Pool) *ReadingStore {
	return &ReadingStore{pool: pool}
}

const readingColumns = `id, pm10, pm25, co2, humidity, temperature, username, "timestamp"`

func scanReading(row pgx.Row) (readings.Reading, error) {
	var r readings.Reading
	err := row.Scan(&r.ID, &r.PM10, &r.PM25, &r.CO2, &r.Humidity, &r.Temperature, &r.Username, &r.Timestamp)
	return r, err
}

// Latest returns the newest reading, nil when the table is empty.
func (s *ReadingStore) Latest(ctx context.Context) (*readings.Reading, error) {
	const query = `SELECT ` + readingColumns + ` FROM sensor_readings
		ORDER BY "timestamp" DESC, id DESC
		LIMIT 1`

	r, err := scanReading(s.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", readings.ErrStoreUnavailable, err)
	}
	return &r, nil
}

// Recent returns up to limit readings, newest first.
func (s *ReadingStore) Recent(ctx context.Context, limit int) ([]readings.Reading, error) {
	const query = `SELECT ` + readingColumns + ` FROM sensor_readings
		ORDER BY "timestamp" DESC, id DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", readings.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	out := make([]readings.Reading, 0, limit)
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", readings.ErrStoreUnavailable, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", readings.ErrStoreUnavailable, err)
	}
	return out, nil
}
