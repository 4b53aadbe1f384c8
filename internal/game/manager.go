package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/challenge-game/internal/agent"
	"github.com/ashureev/challenge-game/internal/domain"
	"github.com/ashureev/challenge-game/internal/roster"
	"github.com/ashureev/challenge-game/internal/store"
)

// ErrSessionNotFound is returned for a session id that is neither live nor stored.
var ErrSessionNotFound = errors.New("session not found")

type session struct {
	ctrl      *Controller
	createdAt time.Time

	// saveMu orders snapshot-and-save so an older snapshot never overwrites
	// a newer one. removed is set once the session leaves the registry.
	saveMu  sync.Mutex
	removed bool
}

// retire stops any further saves of s.
func (s *session) retire() {
	s.saveMu.Lock()
	s.removed = true
	s.saveMu.Unlock()
}

// ManagerConfig holds the dependencies of a Manager.
type ManagerConfig struct {
	Repo       store.Repository
	Speaker    agent.Speaker
	Rand       *rand.Rand
	RosterSize int
	Now        func() time.Time
}

// Manager owns the live game sessions. Sessions are snapshotted to the
// repository after every change and rehydrated from it on demand, so a
// restart loses nothing but in-flight requests.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session

	// lifeMu serialises the slow paths that add or remove a session
	// (create, rehydrate, clear) so a cleared session cannot be restored
	// from a row read before it was deleted.
	lifeMu sync.Mutex

	randMu sync.Mutex
	rand   *rand.Rand

	repo       store.Repository
	speaker    agent.Speaker
	rosterSize int
	now        func() time.Time

	obsMu     sync.RWMutex
	observers []EntryFunc
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.RosterSize <= 0 {
		cfg.RosterSize = roster.DefaultSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		sessions:   make(map[string]*session),
		rand:       cfg.Rand,
		repo:       cfg.Repo,
		speaker:    cfg.Speaker,
		rosterSize: cfg.RosterSize,
		now:        cfg.Now,
	}
}

// Observe registers fn to receive every discussion entry of every session.
func (m *Manager) Observe(fn EntryFunc) {
	m.obsMu.Lock()
	defer m.obsMu.Unlock()
	m.observers = append(m.observers, fn)
}

func (m *Manager) notify(sessionID string, entry domain.DiscussionEntry) {
	m.obsMu.RLock()
	observers := m.observers
	m.obsMu.RUnlock()
	for _, fn := range observers {
		fn(sessionID, entry)
	}
}

// Create seats a new roster and starts a game. An empty sessionID gets a
// generated one; an existing session with the same id is replaced.
func (m *Manager) Create(ctx context.Context, sessionID string) (string, *Controller, StartResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	m.randMu.Lock()
	profiles, err := roster.Generate(m.rand, m.rosterSize)
	var prefs map[string]roster.Preferences
	if err == nil {
		prefs = roster.GenerateAll(m.rand, profiles, domain.DefaultCatalog().Names())
	}
	m.randMu.Unlock()
	if err != nil {
		return "", nil, StartResult{}, fmt.Errorf("generate roster: %w", err)
	}

	ctrl := NewController(m.controllerConfig(sessionID, profiles, prefs))
	result := ctrl.Start()

	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	m.mu.Lock()
	if old, ok := m.sessions[sessionID]; ok {
		delete(m.sessions, sessionID)
		old.retire()
	}
	m.mu.Unlock()

	// Registered only once stored, so a failed start leaves nothing behind.
	s := &session{ctrl: ctrl, createdAt: m.now()}
	if err := m.persist(ctx, sessionID, s); err != nil {
		return "", nil, StartResult{}, err
	}

	m.mu.Lock()
	m.sessions[sessionID] = s
	m.mu.Unlock()

	slog.Info("Game session created", "session_id", sessionID, "agents", len(profiles))
	return sessionID, ctrl, result, nil
}

// Get returns the controller for sessionID, rehydrating it from the
// repository when it is not live.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Controller, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	if s, ok := m.live(sessionID); ok {
		return s.ctrl, nil
	}

	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	// Another request may have restored it first.
	if s, ok := m.live(sessionID); ok {
		return s.ctrl, nil
	}

	rec, err := m.repo.GetGame(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	ctrl, err := Restore(m.controllerConfig(sessionID, nil, nil), rec.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", sessionID, err)
	}

	m.mu.Lock()
	m.sessions[sessionID] = &session{ctrl: ctrl, createdAt: rec.CreatedAt}
	m.mu.Unlock()
	slog.Info("Game session restored", "session_id", sessionID, "phase", rec.Phase)
	return ctrl, nil
}

// Save snapshots a live session to the repository.
func (m *Manager) Save(ctx context.Context, sessionID string) error {
	s, ok := m.live(sessionID)
	if !ok {
		return ErrSessionNotFound
	}
	return m.persist(ctx, sessionID, s)
}

func (m *Manager) live(sessionID string) (*session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// persist snapshots s and stores it. The snapshot is taken under saveMu,
// so concurrent saves of one session land in the order they snapshot.
func (m *Manager) persist(ctx context.Context, sessionID string, s *session) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if s.removed {
		return ErrSessionNotFound
	}

	data, err := s.ctrl.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot session %s: %w", sessionID, err)
	}
	rec := &domain.GameRecord{
		SessionID: sessionID,
		Phase:     s.ctrl.Phase(),
		Snapshot:  data,
		CreatedAt: s.createdAt,
		UpdatedAt: m.now(),
	}
	if err := m.repo.SaveGame(ctx, rec); err != nil {
		return fmt.Errorf("persist session %s: %w", sessionID, err)
	}
	return nil
}

// SaveReflection stores the player's written reflection.
func (m *Manager) SaveReflection(ctx context.Context, sessionID, text string) error {
	if _, err := m.Get(ctx, sessionID); err != nil {
		return err
	}
	rec := &domain.ReflectionRecord{SessionID: sessionID, Text: text, CreatedAt: m.now()}
	if err := m.repo.SaveReflection(ctx, rec); err != nil {
		return fmt.Errorf("save reflection for %s: %w", sessionID, err)
	}
	return nil
}

// Clear forgets a session. Clearing an unknown session is not an error.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if ok {
		s.retire()
	}

	if err := m.repo.DeleteGame(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session %s: %w", sessionID, err)
	}
	slog.Info("Game session cleared", "session_id", sessionID)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) controllerConfig(sessionID string, profiles []domain.AgentProfile, prefs map[string]roster.Preferences) Config {
	return Config{
		SessionID:   sessionID,
		Profiles:    profiles,
		Preferences: prefs,
		Speaker:     m.speaker,
		Now:         m.now,
		OnEntry:     m.notify,
	}
}
