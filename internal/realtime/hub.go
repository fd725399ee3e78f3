package realtime

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 8
)

// Signal tells subscribers that a listing changed. It carries no state;
// clients re-fetch the auction or offer view on receipt.
type Signal struct {
	ListingID string `json:"listingId"`
	Kind      string `json:"kind"`
	Version   int64  `json:"version"`
}

type client struct {
	id        string
	listingID string
	send      chan Signal
}

// Hub fans refresh signals out to websocket subscribers grouped by listing.
// Publish never blocks: a subscriber whose buffer is full misses the signal
// and catches up on its next poll.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	version  atomic.Int64

	mu   sync.RWMutex
	subs map[string]map[*client]struct{}
}

func NewHub(log *zap.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log: log.Named("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		subs: make(map[string]map[*client]struct{}),
	}
}

// Publish sends a refresh signal for listingID and returns its version.
func (h *Hub) Publish(listingID, kind string) int64 {
	sig := Signal{ListingID: listingID, Kind: kind, Version: h.version.Add(1)}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.subs[listingID] {
		select {
		case c.send <- sig:
		default:
			h.log.Debug("dropping signal for slow subscriber",
				zap.String("client_id", c.id),
				zap.String("listing_id", listingID),
				zap.Int64("version", sig.Version))
		}
	}
	return sig.Version
}

// Subscribers returns the number of live subscribers for a listing.
func (h *Hub) Subscribers(listingID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[listingID])
}

func (h *Hub) subscribe(listingID string) *client {
	c := &client{
		id:        uuid.NewString(),
		listingID: listingID,
		send:      make(chan Signal, sendBuffer),
	}
	h.mu.Lock()
	set, ok := h.subs[listingID]
	if !ok {
		set = make(map[*client]struct{})
		h.subs[listingID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[c.listingID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.subs, c.listingID)
	}
}

// Serve upgrades the request and streams signals for listingID until the
// peer goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, listingID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := h.subscribe(listingID)
	log := h.log.With(zap.String("client_id", c.id), zap.String("listing_id", listingID))
	log.Debug("subscriber connected")
	defer func() {
		h.unsubscribe(c)
		_ = conn.Close()
		log.Debug("subscriber disconnected")
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case sig := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(sig); err != nil {
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case <-done:
			return nil
		}
	}
}
