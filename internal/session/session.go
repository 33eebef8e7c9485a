// Package session keeps the per-session conversation logs.
package session

import (
	"strings"
	"sync"

	"github.com/garyellow/baera-chatbot-go/internal/metrics"
)

// DefaultID is used when a request carries no session id.
const DefaultID = "default"

// HistoryWindow is the number of turns included in a prompt.
const HistoryWindow = 5

// Turn is one recorded exchange.
type Turn struct {
	UserMessage string
	Answer      string
}

// turnLog is an append-only list of turns for one session.
type turnLog struct {
	mu    sync.Mutex
	turns []Turn
}

// Store holds one log per session id. Sessions never expire; a reset
// empties the log but keeps the session.
//
// Appends to different sessions do not contend; appends to one session
// are serialized by that session's lock.
type Store struct {
	mu       sync.RWMutex
	logs     map[string]*turnLog
	onUpdate func(count int)
}

// NewStore creates an empty store. m may be nil.
func NewStore(m *metrics.Metrics) *Store {
	s := &Store{logs: make(map[string]*turnLog)}
	if m != nil {
		s.onUpdate = m.SetSessionsActive
	}
	return s
}

// ID returns id trimmed, or DefaultID when it is blank.
func ID(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return DefaultID
	}
	return id
}

// Append records a turn.
func (s *Store) Append(id, userMessage, answer string) {
	l := s.getOrCreate(ID(id))
	l.mu.Lock()
	l.turns = append(l.turns, Turn{UserMessage: userMessage, Answer: answer})
	l.mu.Unlock()
}

// History returns up to limit most recent turns, oldest first. A limit of
// zero or less returns HistoryWindow turns.
func (s *Store) History(id string, limit int) []Turn {
	if limit <= 0 {
		limit = HistoryWindow
	}
	l := s.get(ID(id))
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	start := max(len(l.turns)-limit, 0)
	out := make([]Turn, len(l.turns)-start)
	copy(out, l.turns[start:])
	return out
}

// LastAnswer returns the most recent answer, or "" when there is none.
func (s *Store) LastAnswer(id string) string {
	l := s.get(ID(id))
	if l == nil {
		return ""
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.turns) == 0 {
		return ""
	}
	return l.turns[len(l.turns)-1].Answer
}

// Len returns the number of turns recorded for id.
func (s *Store) Len(id string) int {
	l := s.get(ID(id))
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.turns)
}

// Reset clears the turns of id. The session itself is kept.
func (s *Store) Reset(id string) {
	l := s.getOrCreate(ID(id))
	l.mu.Lock()
	l.turns = nil
	l.mu.Unlock()
}

// Count returns the number of known sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs)
}

func (s *Store) get(id string) *turnLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logs[id]
}

func (s *Store) getOrCreate(id string) *turnLog {
	s.mu.RLock()
	l, ok := s.logs[id]
	s.mu.RUnlock()
	if ok {
		return l
	}

	s.mu.Lock()
	// Double-check after acquiring write lock
	if l, ok = s.logs[id]; ok {
		s.mu.Unlock()
		return l
	}
	l = &turnLog{}
	s.logs[id] = l
	count := len(s.logs)
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(count)
	}
	return l
}
