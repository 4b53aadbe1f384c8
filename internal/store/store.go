// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/challenge-game/internal/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the interface for persisting game sessions.
type Repository interface {
	// SaveGame creates or updates a game session snapshot.
	SaveGame(ctx context.Context, rec *domain.GameRecord) error

	// GetGame retrieves a game session by id. Returns ErrNotFound if missing.
	GetGame(ctx context.Context, sessionID string) (*domain.GameRecord, error)

	// DeleteGame removes a game session and its reflections.
	DeleteGame(ctx context.Context, sessionID string) error

	// ExpiredGames lists the ids of sessions not updated within ttl.
	ExpiredGames(ctx context.Context, ttl time.Duration) ([]string, error)

	// SaveReflection stores a written reflection for a session.
	SaveReflection(ctx context.Context, rec *domain.ReflectionRecord) error

	// ListReflections returns a session's reflections, oldest first.
	ListReflections(ctx context.Context, sessionID string) ([]*domain.ReflectionRecord, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
