package player

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// SessionManager maintains the registry of connected Sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session // playerID → session
	logger   *zap.Logger
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[int64]*Session),
		logger:   logger,
	}
}

// Register adds a session, displacing any previous session for the
// same player (duplicate login / reconnect).
func (sm *SessionManager) Register(s *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if old, ok := sm.sessions[s.PlayerID]; ok {
		old.Close()
		sm.logger.Info("duplicate session displaced", zap.Int64("player_id", s.PlayerID))
	}
	sm.sessions[s.PlayerID] = s
	sm.logger.Info("player session registered",
		zap.Int64("player_id", s.PlayerID),
		zap.Int64("account_id", s.AccountID))
}

// Unregister removes the session for a player.
func (sm *SessionManager) Unregister(playerID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, playerID)
	sm.logger.Info("player session unregistered", zap.Int64("player_id", playerID))
}

// Get returns the session for a player, or nil.
func (sm *SessionManager) Get(playerID int64) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[playerID]
}

// GetByName finds a session by username (case-insensitive).
func (sm *SessionManager) GetByName(name string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	nameLower := strings.ToLower(name)
	for _, s := range sm.sessions {
		if strings.ToLower(s.Username) == nameLower {
			return s
		}
	}
	return nil
}

// Count returns the number of connected sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// All returns a snapshot of all current sessions.
func (sm *SessionManager) All() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	out := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		out = append(out, s)
	}
	return out
}

// BroadcastAll sends a pre-encoded packet to every connected session.
// Sends are non-blocking so one slow connection cannot stall the rest.
func (sm *SessionManager) BroadcastAll(data []byte) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for _, s := range sm.sessions {
		s.SendRaw(data)
	}
}
