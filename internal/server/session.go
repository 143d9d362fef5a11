package server

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gravitas-games/mazenav/internal/network"
	"github.com/gravitas-games/mazenav/pkg/models"
)

// Session tracks the users connected to this server instance
type Session struct {
	ID        string
	CreatedAt time.Time

	users map[string]*models.User // connection ID -> User
	mu    sync.RWMutex

	logger *log.Logger
}

// NewSession creates an empty session with a fresh ID
func NewSession(logger *log.Logger) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		users:     make(map[string]*models.User),
		logger:    logger,
	}
	logger.Info("Session created", "session", s.ID)
	return s
}

// AddUser records a user arriving on a connection
func (s *Session) AddUser(connID string, user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Connected = true
	user.ConnectedAt = time.Now()
	user.SessionID = s.ID
	s.users[connID] = user

	s.logger.Info("User joined", "user", user.Username, "id", user.ID, "conn", connID, "connected", len(s.users))
}

// RemoveUser drops the user of a connection
func (s *Session) RemoveUser(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, exists := s.users[connID]; exists {
		user.Connected = false
		delete(s.users, connID)
		s.logger.Info("User left", "user", user.Username, "id", user.ID, "conn", connID, "connected", len(s.users))
	}
}

// UserCount returns the number of connected users
func (s *Session) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Status returns the current session status
func (s *Session) Status(mazes int) network.SessionStatus {
	return network.SessionStatus{
		ConnectedUsers: s.UserCount(),
		Mazes:          mazes,
		Uptime:         int64(time.Since(s.CreatedAt).Seconds()),
	}
}
