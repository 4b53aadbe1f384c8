package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/ashureev/challenge-game/internal/protocol"
)

// Subscribe opens the discussion feed of a session. The channel receives
// the discussion so far and then every new entry. It is closed when ctx ends,
// the server closes the session, or the connection drops.
func (c *Client) Subscribe(ctx context.Context, sessionID string) (<-chan protocol.FeedMessage, error) {
	u, err := feedURL(c.baseURL, sessionID)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dial discussion feed: %w", err)
	}

	out := make(chan protocol.FeedMessage, 16)
	go func() {
		defer close(out)
		defer conn.Close(websocket.StatusNormalClosure, "")
		for {
			var msg protocol.FeedMessage
			if err := wsjson.Read(ctx, conn, &msg); err != nil {
				return
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
			if msg.Type == protocol.FeedClosed {
				return
			}
		}
	}()
	return out, nil
}

func feedURL(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse server address: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/discussion"
	u.RawQuery = url.Values{"session_id": {sessionID}}.Encode()
	return u.String(), nil
}
