package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CleanupCallback is called when a session is removed by the TTL worker.
type CleanupCallback func(sessionID string)

// StartTTLWorker runs a background goroutine that periodically removes
// sessions idle for longer than ttl.
func StartTTLWorker(ctx context.Context, mgr *Manager, interval, ttl time.Duration, onCleanup CleanupCallback) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("TTL worker started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				if _, err := mgr.Sweep(ctx, ttl, onCleanup); err != nil {
					slog.Error("TTL worker sweep failed", "error", err)
				}
			case <-ctx.Done():
				slog.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// Sweep removes sessions whose last change is older than ttl and returns
// how many were removed.
func (m *Manager) Sweep(ctx context.Context, ttl time.Duration, onCleanup CleanupCallback) (int, error) {
	expired, err := m.repo.ExpiredGames(ctx, ttl)
	if err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	slog.Info("TTL worker found expired sessions", "count", len(expired))

	cleaned := 0
	for _, id := range expired {
		if err := m.Clear(ctx, id); err != nil {
			slog.Warn("TTL worker failed to clear session",
				"error", err,
				"session_id", id)
			continue
		}
		if onCleanup != nil {
			onCleanup(id)
		}
		cleaned++
	}

	slog.Info("TTL worker cleanup completed", "cleaned", cleaned)
	return cleaned, nil
}
