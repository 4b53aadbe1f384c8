package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/identity"
	"github.com/ashureev/challenge-game/internal/protocol"
)

const writeTimeout = 10 * time.Second

// ErrUnknownSession is returned by a HistoryFunc for sessions that do not exist.
var ErrUnknownSession = errors.New("unknown session")

// HistoryFunc returns the discussion recorded so far for a session.
type HistoryFunc func(ctx context.Context, sessionID string) ([]domain.DiscussionEntry, error)

// WebSocketHandler serves /ws/discussion. A connection first receives the
// discussion so far, then every new entry as it is recorded.
type WebSocketHandler struct {
	hub            *Hub
	history        HistoryFunc
	allowedOrigins []string
	isDev          bool
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(hub *Hub, history HistoryFunc, allowedOrigins []string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		history:        history,
		allowedOrigins: allowedOrigins,
		isDev:          isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())
	if sessionID == "" {
		sessionID = identity.FromRequest(r)
	}
	if sessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}
	slog.Info("Feed connection request", "session_id", sessionID, "ip", identity.IPFromRequest(r))

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	// Subscribe before reading the history so no entry falls in between.
	// Entries landing in both are dropped from the live side by Seq.
	sub := h.hub.Subscribe(sessionID)
	defer sub.Close()

	backlog, err := h.history(r.Context(), sessionID)
	if errors.Is(err, ErrUnknownSession) {
		http.Error(w, "Invalid session ID", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to load discussion history", "error", err, "session_id", sessionID)
		http.Error(w, "failed to load discussion", http.StatusInternalServerError)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()
		h.inputLoop(ctx, ws, sessionID)
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		h.outputLoop(ctx, ws, sessionID, backlog, sub)
	}()

	wg.Wait()
	slog.Info("Feed connection ended", "session_id", sessionID)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.allowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigins)
	return false
}

// inputLoop answers pings. The feed is otherwise one-way.
func (h *WebSocketHandler) inputLoop(ctx context.Context, ws *websocket.Conn, sessionID string) {
	for {
		var msg protocol.FeedMessage
		if err := wsjson.Read(ctx, ws, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 || ctx.Err() != nil {
				slog.Debug("WebSocket closed", "session_id", sessionID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "session_id", sessionID)
			}
			return
		}
		if msg.Type == protocol.FeedPing {
			if err := write(ctx, ws, protocol.FeedMessage{Type: protocol.FeedPong, SessionID: sessionID}); err != nil {
				slog.Debug("Failed to send pong", "error", err)
				return
			}
		}
	}
}

func (h *WebSocketHandler) outputLoop(ctx context.Context, ws *websocket.Conn, sessionID string, backlog []domain.DiscussionEntry, sub *Subscription) {
	lastSeq := 0
	for i := range backlog {
		lastSeq = max(lastSeq, backlog[i].Seq)
		msg := protocol.FeedMessage{Type: protocol.FeedEntry, SessionID: sessionID, Entry: &backlog[i]}
		if err := write(ctx, ws, msg); err != nil {
			slog.Debug("Failed to replay discussion", "error", err, "session_id", sessionID)
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C:
			if !ok {
				return
			}
			if replayed(msg, lastSeq) {
				continue
			}
			if err := write(ctx, ws, msg); err != nil {
				slog.Debug("Failed to write feed message", "error", err, "session_id", sessionID)
				return
			}
			if msg.Type == protocol.FeedClosed {
				return
			}
		}
	}
}

// replayed reports whether msg carries an entry already sent in the backlog.
func replayed(msg protocol.FeedMessage, lastSeq int) bool {
	return lastSeq > 0 && msg.Type == protocol.FeedEntry && msg.Entry != nil && msg.Entry.Seq <= lastSeq
}

func write(ctx context.Context, ws *websocket.Conn, msg protocol.FeedMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws, msg)
}
