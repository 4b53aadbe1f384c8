// Package feed streams group discussion entries to websocket subscribers.
package feed

import (
	"log/slog"
	"sync"

	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/protocol"
)

const subscriberBuffer = 64

// Subscription receives the messages published for one session.
type Subscription struct {
	C <-chan protocol.FeedMessage

	ch        chan protocol.FeedMessage
	sessionID string
	hub       *Hub
	once      sync.Once
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub fans out discussion entries to the subscribers of each session.
type Hub struct {
	mu     sync.RWMutex
	active map[string]map[*Subscription]struct{}
	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		active: make(map[string]map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe registers a subscriber for sessionID.
func (h *Hub) Subscribe(sessionID string) *Subscription {
	ch := make(chan protocol.FeedMessage, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, sessionID: sessionID, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.active[sessionID]; !ok {
		h.active[sessionID] = make(map[*Subscription]struct{})
	}
	h.active[sessionID][sub] = struct{}{}
	h.logger.Debug("Feed subscriber registered", "session_id", sessionID, "subscribers", len(h.active[sessionID]))
	return sub
}

// Publish sends entry to every subscriber of sessionID. A subscriber whose
// buffer is full misses the entry.
func (h *Hub) Publish(sessionID string, entry domain.DiscussionEntry) {
	msg := protocol.FeedMessage{Type: protocol.FeedEntry, SessionID: sessionID, Entry: &entry}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.active[sessionID] {
		select {
		case sub.ch <- msg:
		default:
			h.logger.Warn("Feed subscriber too slow, dropping entry", "session_id", sessionID)
		}
	}
}

// CloseSession ends every subscription of sessionID. Subscribers see a
// closed message followed by the end of their channel.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	subs := h.active[sessionID]
	delete(h.active, sessionID)
	h.mu.Unlock()

	for sub := range subs {
		sub.once.Do(func() {
			select {
			case sub.ch <- protocol.FeedMessage{Type: protocol.FeedClosed, SessionID: sessionID}:
			default:
			}
			close(sub.ch)
		})
	}
	if len(subs) > 0 {
		h.logger.Info("Feed session closed", "session_id", sessionID, "subscribers", len(subs))
	}
}

// Subscribers returns the number of subscribers of sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active[sessionID])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	if subs, ok := h.active[sub.sessionID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.active, sub.sessionID)
		}
	}
	h.mu.Unlock()

	sub.once.Do(func() { close(sub.ch) })
}
