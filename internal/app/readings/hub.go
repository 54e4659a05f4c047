package readings

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"aqimonitor/internal/pkg/logx"
	"aqimonitor/internal/pkg/metrics"
)

const (
	// DefaultBroadcastInterval is how often the hub polls and pushes the latest reading.
	DefaultBroadcastInterval = 5 * time.Second

	// snapshotTimeout bounds a single poll of the readings source.
	snapshotTimeout = 3 * time.Second

	// TypeReading tags a feed message carrying the latest reading.
	TypeReading = "reading"
)

// Source supplies the reading pushed to feed clients.
type Source interface {
	Latest(ctx context.Context) *View
}

// FeedMessage is the frame sent to feed clients. Reading is null while the store holds none.
type FeedMessage struct {
	Type    string `json:"type"`
	Reading *View  `json:"reading"`
}

// Hub fans the latest reading out to every connected dashboard.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	source   Source
	interval time.Duration

	// connected clients; owned by Run.
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	// closed when Run returns.
	done chan struct{}

	logger zerolog.Logger
}

// NewHub constructs a Hub polling source every interval.
func NewHub(source Source, interval time.Duration) *Hub {
	if interval <= 0 {
		interval = DefaultBroadcastInterval
	}

	return &Hub{
		source:     source,
		interval:   interval,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logx.Component("readings_hub"),
	}
}

// Done is closed once Run has returned and every client was released.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run is the hub event loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)

	defer func() {
		ticker.Stop()
		for c := range h.clients {
			h.remove(c)
		}
		close(h.done)
		h.logger.Info().Msg("Hub stopped.")
	}()

	h.logger.Info().Dur("interval", h.interval).Msg("Hub started.")

	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.FeedConnections.Set(float64(len(h.clients)))
			h.logger.Info().Int("total_clients", len(h.clients)).Msg("Client joined feed.")

			if frame, ok := h.snapshot(ctx); ok {
				h.deliver(c, frame)
			}

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.remove(c)
				h.logger.Info().Int("total_clients", len(h.clients)).Msg("Client left feed.")
			}

		case <-ticker.C:
			if len(h.clients) == 0 {
				continue
			}

			frame, ok := h.snapshot(ctx)
			if !ok {
				continue
			}
			for c := range h.clients {
				h.deliver(c, frame)
			}

		case <-ctx.Done():
			return
		}
	}
}

// snapshot polls the source and encodes the feed frame.
func (h *Hub) snapshot(ctx context.Context) ([]byte, bool) {
	pollCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	frame, err := json.Marshal(FeedMessage{Type: TypeReading, Reading: h.source.Latest(pollCtx)})
	if err != nil {
		h.logger.Error().Err(err).Msg("Error marshaling feed frame.")
		return nil, false
	}
	return frame, true
}

// deliver queues frame for c, dropping the client when its queue is full.
func (h *Hub) deliver(c *Client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		h.logger.Warn().Msg("Client send queue full, dropping slow client.")
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	delete(h.clients, c)
	close(c.send)
	metrics.FeedConnections.Set(float64(len(h.clients)))
}

// Attach serves an upgraded connection until either side closes it.
// It blocks for the lifetime of the connection.
func (h *Hub) Attach(conn *websocket.Conn) {
	c := newClient(h, conn)

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	c.readPump()
}

// leave hands c back to the Run loop; it is a no-op once the hub has stopped.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
