package domain

import "time"

// GameRecord is the persisted form of a game session.
type GameRecord struct {
	SessionID string
	Phase     Phase
	Snapshot  []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReflectionRecord is a written reflection submitted by the player.
type ReflectionRecord struct {
	ID        int64
	SessionID string
	Text      string
	CreatedAt time.Time
}
