// Package session keeps the in-memory conversational state for each
// chat and serializes access to it: updates for the same chat are
// processed one at a time, updates for different chats run in parallel.
package session

import (
	"sync"
	"time"

	"github.com/casahojaldre/chatbot-backend/internal/conv"
	"github.com/casahojaldre/chatbot-backend/internal/preorder"
)

// State is the mutable per-chat conversation state. It is only safe to
// touch between Acquire and Release on the owning Store.
type State struct {
	ID          string
	ChatID      int64
	DisplayName string
	Mode        Mode
	Wizard      *preorder.Session
	History     []conv.Turn
	LastSeenAt  time.Time
}

// Remember appends a turn to the history, keeping at most limit turns.
func (s *State) Remember(role conv.Role, content string, limit int) {
	if content == "" || limit <= 0 {
		return
	}
	s.History = append(s.History, conv.Turn{Role: role, Content: content})
	if len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

// LastTurns returns up to n most recent turns.
func (s *State) LastTurns(n int) []conv.Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if len(s.History) > n {
		return s.History[len(s.History)-n:]
	}
	return s.History
}

type entry struct {
	mu    sync.Mutex
	state *State
}

// Store owns every live session. Acquire blocks until the caller holds
// the session exclusively; Release hands it back.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(idleTTL time.Duration) *Store {
	return &Store{
		entries: make(map[string]*entry),
		ttl:     idleTTL,
		now:     time.Now,
	}
}

func (s *Store) entryFor(id string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{state: &State{ID: id, Mode: ModeIdle}}
		s.entries[id] = e
	}
	return e
}

// Acquire locks the session for id, creating it on first contact, and
// returns its state. The caller must call Release when done.
func (s *Store) Acquire(id string) *State {
	for {
		e := s.entryFor(id)
		e.mu.Lock()
		// Sweep may have dropped e between the map lookup and the lock.
		// A locked entry is never swept, so once the map still points at
		// e the hold is exclusive; otherwise retry on the live entry.
		s.mu.Lock()
		live := s.entries[id] == e
		s.mu.Unlock()
		if live {
			e.state.LastSeenAt = s.now()
			return e.state
		}
		e.mu.Unlock()
	}
}

// Release unlocks the session previously returned by Acquire. The map
// still holds the caller's entry here: Sweep never removes a locked one.
func (s *Store) Release(id string) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if ok {
		e.mu.Unlock()
	}
}

// Len reports how many sessions are currently tracked.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops sessions idle for longer than the store TTL. Sessions
// currently held by a handler are skipped and picked up next round.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		// Remove before unlocking so a racing Acquire that locked this
		// entry sees it gone from the map and retries on a fresh one.
		if e.state.LastSeenAt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}
