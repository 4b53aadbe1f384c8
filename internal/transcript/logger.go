// Package transcript writes game discussions to per-session NDJSON files.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/identity"
)

// Event is one transcript line.
type Event struct {
	SessionID string `json:"session_id"`
	domain.DiscussionEntry
}

// Logger records discussion events.
type Logger interface {
	Log(event Event)
	Close() error
}

// Config controls the file logger.
type Config struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// New returns a file logger, or a no-op logger when cfg is disabled.
func New(cfg Config, logger *slog.Logger) (Logger, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	return NewFileLogger(cfg, logger)
}

// Noop discards every event.
type Noop struct{}

// Log implements Logger.
func (Noop) Log(Event) {}

// Close implements Logger.
func (Noop) Close() error { return nil }

// FileLogger appends events to <dir>/<session_id>.ndjson from a single
// background goroutine. Log never blocks: when the queue is full the event
// is dropped with a warning.
type FileLogger struct {
	dir    string
	queue  chan Event
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewFileLogger creates the transcript directory and starts the writer.
func NewFileLogger(cfg Config, logger *slog.Logger) (*FileLogger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dir == "" {
		return nil, errors.New("transcript directory is empty")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}

	l := &FileLogger{
		dir:    cfg.Dir,
		queue:  make(chan Event, cfg.QueueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Log queues event for writing.
func (l *FileLogger) Log(event Event) {
	defer func() {
		// Log after Close sends on a closed channel.
		if recover() != nil {
			l.logger.Debug("Transcript event after close dropped", "session_id", event.SessionID)
		}
	}()

	select {
	case l.queue <- event:
	default:
		l.logger.Warn("Transcript queue full, dropping event",
			"session_id", event.SessionID,
			"queue_len", len(l.queue),
		)
	}
}

// Close flushes queued events and stops the writer.
func (l *FileLogger) Close() error {
	l.closeOnce.Do(func() { close(l.queue) })
	<-l.done
	return nil
}

func (l *FileLogger) run() {
	defer close(l.done)
	for event := range l.queue {
		if err := l.write(event); err != nil {
			l.logger.Warn("Failed to write transcript event",
				"session_id", event.SessionID,
				"error", err,
			)
		}
	}
}

func (l *FileLogger) write(event Event) error {
	sid, ok := identity.Sanitize(event.SessionID)
	if !ok {
		return fmt.Errorf("invalid session id %q", event.SessionID)
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(filepath.Join(l.dir, sid+".ndjson"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write transcript: %w", err)
	}
	return f.Close()
}

// Observer adapts a Logger to the game manager's entry callback.
func Observer(l Logger) func(sessionID string, entry domain.DiscussionEntry) {
	return func(sessionID string, entry domain.DiscussionEntry) {
		l.Log(Event{SessionID: sessionID, DiscussionEntry: entry})
	}
}
