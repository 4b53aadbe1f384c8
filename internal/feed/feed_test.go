package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/protocol"
)

func TestHubPublishesPerSession(t *testing.T) {
	hub := NewHub(nil)
	a := hub.Subscribe("a")
	b := hub.Subscribe("b")
	defer a.Close()
	defer b.Close()

	hub.Publish("a", domain.DiscussionEntry{SpeakerID: "agent_1", Statement: "hello"})

	select {
	case msg := <-a.C:
		if msg.Type != protocol.FeedEntry || msg.Entry.Statement != "hello" {
			t.Errorf("unexpected message %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber a received nothing")
	}

	select {
	case msg := <-b.C:
		t.Errorf("subscriber b got a message for another session: %+v", msg)
	default:
	}
}

func TestHubCloseSession(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Subscribe("a")

	hub.CloseSession("a")
	msg, ok := <-sub.C
	if !ok || msg.Type != protocol.FeedClosed {
		t.Fatalf("expected closed message, got %+v ok=%v", msg, ok)
	}
	if _, ok := <-sub.C; ok {
		t.Error("expected channel to be closed")
	}

	// Closing the subscription afterwards must not panic.
	sub.Close()
	if hub.Subscribers("a") != 0 {
		t.Error("expected no subscribers")
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewHub(nil)
	sub := hub.Subscribe("a")
	defer sub.Close()

	for range subscriberBuffer + 10 {
		hub.Publish("a", domain.DiscussionEntry{Statement: "x"})
	}
	if got := len(sub.C); got != subscriberBuffer {
		t.Errorf("expected a full buffer of %d, got %d", subscriberBuffer, got)
	}
}

func newFeedServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	history := func(_ context.Context, sessionID string) ([]domain.DiscussionEntry, error) {
		if sessionID != "known" {
			return nil, ErrUnknownSession
		}
		return []domain.DiscussionEntry{{SpeakerID: "agent_1", Statement: "earlier"}}, nil
	}
	srv := httptest.NewServer(NewWebSocketHandler(hub, history, []string{"*"}, false))
	t.Cleanup(srv.Close)
	return srv
}

func TestWebSocketReplaysAndStreams(t *testing.T) {
	hub := NewHub(nil)
	srv := newFeedServer(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, srv.URL+"?session_id=known", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer func() { _ = conn.CloseNow() }()

	var msg protocol.FeedMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read replay: %v", err)
	}
	if msg.Entry == nil || msg.Entry.Statement != "earlier" {
		t.Fatalf("expected replayed entry, got %+v", msg)
	}

	// Subscription is registered before the handshake completes.
	hub.Publish("known", domain.DiscussionEntry{SpeakerID: "agent_2", Statement: "live"})
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read live entry: %v", err)
	}
	if msg.Entry == nil || msg.Entry.Statement != "live" {
		t.Fatalf("expected live entry, got %+v", msg)
	}

	if err := wsjson.Write(ctx, conn, protocol.FeedMessage{Type: protocol.FeedPing}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if msg.Type != protocol.FeedPong {
		t.Errorf("expected pong, got %+v", msg)
	}

	hub.CloseSession("known")
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read closed: %v", err)
	}
	if msg.Type != protocol.FeedClosed {
		t.Errorf("expected closed, got %+v", msg)
	}
}

func TestWebSocketRejectsUnknownSession(t *testing.T) {
	srv := newFeedServer(t, NewHub(nil))

	resp, err := http.Get(srv.URL + "?session_id=missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}

	resp2, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without session id, got %d", resp2.StatusCode)
	}
}

func TestCheckOrigin(t *testing.T) {
	h := NewWebSocketHandler(NewHub(nil), nil, []string{"https://game.example"}, false)

	req := httptest.NewRequest(http.MethodGet, "/ws/discussion", nil)
	req.Header.Set("Origin", "https://evil.example")
	if h.checkOrigin(req) {
		t.Error("expected foreign origin to be rejected")
	}
	req.Header.Set("Origin", "https://game.example")
	if !h.checkOrigin(req) {
		t.Error("expected allowed origin to pass")
	}
}

func TestWebSocketSkipsEntriesAlreadyReplayed(t *testing.T) {
	hub := NewHub(nil)
	// An entry recorded between Subscribe and the history read reaches
	// both the backlog and the live stream.
	history := func(_ context.Context, sessionID string) ([]domain.DiscussionEntry, error) {
		backlog := []domain.DiscussionEntry{
			{Seq: 1, SpeakerID: "agent_1", Statement: "first"},
			{Seq: 2, SpeakerID: "agent_2", Statement: "second"},
		}
		hub.Publish(sessionID, backlog[1])
		return backlog, nil
	}
	srv := httptest.NewServer(NewWebSocketHandler(hub, history, []string{"*"}, false))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, srv.URL+"?session_id=s", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer func() { _ = conn.CloseNow() }()

	hub.Publish("s", domain.DiscussionEntry{Seq: 3, SpeakerID: "agent_3", Statement: "third"})

	var got []int
	for range 3 {
		var msg protocol.FeedMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		got = append(got, msg.Entry.Seq)
	}
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("expected entries 1,2,3 once each, got %v", got)
	}
}
