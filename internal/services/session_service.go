package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStore abstracts persistence operations required by SessionService.
type SessionStore interface {
	AddSession(s *Session)
	GetSession(id string) *Session
	CompleteSession(id string, endTime int64) bool
	ListSessions() []*Session
}

// CreateSessionRequest carries the optional caller-supplied session metadata.
// Missing fields are absorbed via defaults, never rejected.
type CreateSessionRequest struct {
	ParticipantID       string
	CalibrationAccuracy float64
	BrowserInfo         map[string]any
}

// SessionService owns the session lifecycle: creation and completion.
type SessionService struct {
	store       SessionStore
	now         func() time.Time
	idGenerator func() string
}

func NewSessionService(store SessionStore) *SessionService {
	return &SessionService{
		store:       store,
		now:         time.Now,
		idGenerator: uuid.NewString,
	}
}

// Create builds and stores a new in_progress session and returns it.
func (s *SessionService) Create(req CreateSessionRequest) *Session {
	now := s.now()
	pid := req.ParticipantID
	if pid == "" {
		pid = fmt.Sprintf("P-%d", now.Unix())
	}
	info := req.BrowserInfo
	if info == nil {
		info = map[string]any{}
	}
	sess := &Session{
		SessionID:           s.idGenerator(),
		ParticipantID:       pid,
		CalibrationAccuracy: req.CalibrationAccuracy,
		BrowserInfo:         info,
		StartTime:           now.UnixMilli(),
		Status:              StatusInProgress,
	}
	s.store.AddSession(sess)
	return sess
}

// Complete marks a session completed and stamps its end time. Repeated calls
// overwrite the end time; trials recorded afterwards are still accepted. The
// permissive lifecycle is deliberate: a collection backend must not drop
// participant data over frontend lifecycle races.
func (s *SessionService) Complete(sessionID string) error {
	if !s.store.CompleteSession(sessionID, s.now().UnixMilli()) {
		return NewNotFoundError("session not found")
	}
	return nil
}

// Get returns a session by id, or a not_found error.
func (s *SessionService) Get(sessionID string) (*Session, error) {
	sess := s.store.GetSession(sessionID)
	if sess == nil {
		return nil, NewNotFoundError("session not found")
	}
	return sess, nil
}

// List returns all sessions. Order is unspecified.
func (s *SessionService) List() []*Session {
	return s.store.ListSessions()
}
