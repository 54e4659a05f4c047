// Package usertest provides an in-memory user.Repository for tests.
package usertest

import (
	"context"
	"sync"
	"time"

	"aqimonitor/internal/app/user"
)

// Memory is a concurrency-safe user.Repository that enforces the same uniqueness
// rules as the PostgreSQL schema. Set Err to make every call fail with it.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]user.User

	Err error

	// BeforeCreate, when set, runs inside Create before the uniqueness check.
	BeforeCreate func(u user.NewUser)
}

var _ user.Repository = (*Memory)(nil)

// NewMemory returns an empty repository.
func NewMemory() *Memory {
	return &Memory{rows: make(map[int64]user.User)}
}

// Get returns a copy of the row with id.
func (m *Memory) Get(id int64) (user.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	return u, ok
}

// Len returns the number of stored accounts.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *Memory) FindByID(_ context.Context, id int64) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.rows[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) FindByUsername(_ context.Context, username string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if u, ok := m.byUsername(username); ok {
		return &u, nil
	}
	return nil, user.ErrNotFound
}

func (m *Memory) FindByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.rows {
		if u.Email != nil && *u.Email == email {
			return &u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (m *Memory) Create(_ context.Context, nu user.NewUser) (int64, error) {
	if m.BeforeCreate != nil {
		m.BeforeCreate(nu)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}

	for _, u := range m.rows {
		if u.Username == nu.Username {
			return 0, user.ErrDuplicateUsername
		}
		if nu.Email != nil && u.Email != nil && *u.Email == *nu.Email {
			return 0, user.ErrDuplicateEmail
		}
	}

	m.nextID++
	m.rows[m.nextID] = user.User{
		ID:           m.nextID,
		Username:     nu.Username,
		PasswordHash: nu.PasswordHash,
		Email:        nu.Email,
		City:         nu.City,
		CreatedAt:    time.Now().UTC(),
	}
	return m.nextID, nil
}

func (m *Memory) UpdateCity(_ context.Context, id int64, city string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	u, ok := m.rows[id]
	if !ok {
		return user.ErrNotFound
	}
	u.City = city
	m.rows[id] = u
	return nil
}

func (m *Memory) SwapProfilePhoto(_ context.Context, username string, url *string) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.byUsername(username)
	if !ok {
		return nil, user.ErrNotFound
	}
	previous := u.ProfilePhoto
	u.ProfilePhoto = url
	m.rows[u.ID] = u
	return previous, nil
}

func (m *Memory) ProfilePhoto(_ context.Context, username string) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.byUsername(username)
	if !ok {
		return nil, user.ErrNotFound
	}
	return u.ProfilePhoto, nil
}

func (m *Memory) byUsername(username string) (user.User, bool) {
	for _, u := range m.rows {
		if u.Username == username {
			return u, true
		}
	}
	return user.User{}, false
}
