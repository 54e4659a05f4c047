/*
Package portx chooses the TCP port the server listens on and remembers it between runs.

Order of preference: an explicitly configured port, the port saved by the previous run
if it can still be bound, the preferred port, then the first bindable port of the
fallback range.
*/
package portx

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

const (
	// Preferred is tried first when nothing is configured or saved.
	Preferred = 5008

	// fallback range, inclusive.
	RangeStart = 5000
	RangeEnd   = 5010
)

// ErrNoFreePort is returned when every candidate port is taken.
var ErrNoFreePort = errors.New("portx: no free port in range")

// Selector picks and persists a port.
type Selector struct {
	// Configured wins outright when non-zero.
	Configured int

	// File stores the last chosen port. Empty disables persistence.
	File string

	// Host is the interface probed for availability.
	Host string

	// Bindable overrides the availability probe in tests.
	Bindable func(host string, port int) bool
}

// Choose returns the port to listen on.
func (s Selector) Choose() (int, error) {
	if s.Configured > 0 {
		return s.Configured, nil
	}

	if saved, ok := s.load(); ok && s.bindable(saved) {
		return saved, nil
	}

	if s.bindable(Preferred) {
		return Preferred, nil
	}

	for port := RangeStart; port <= RangeEnd; port++ {
		if s.bindable(port) {
			return port, nil
		}
	}

	return 0, fmt.Errorf("%w %d-%d", ErrNoFreePort, RangeStart, RangeEnd)
}

// Save writes port to the file.
func (s Selector) Save(port int) error {
	if s.File == "" {
		return nil
	}
	if err := os.WriteFile(s.File, []byte(strconv.Itoa(port)), 0o644); err != nil {
		return fmt.Errorf("portx: save port: %w", err)
	}
	return nil
}

func (s Selector) load() (int, bool) {
	if s.File == "" {
		return 0, false
	}

	data, err := os.ReadFile(s.File)
	if err != nil {
		return 0, false
	}

	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || port < 1 || port > 65535 {
		return 0, false
	}
	return port, true
}

func (s Selector) bindable(port int) bool {
	if s.Bindable != nil {
		return s.Bindable(s.Host, port)
	}
	return Bindable(s.Host, port)
}

// Bindable reports whether a listener can currently be opened on host:port.
func Bindable(host string, port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}
