package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casahojaldre/chatbot-backend/internal/conv"
)

func TestAcquireCreatesIdleSession(t *testing.T) {
	store := NewStore(30 * time.Minute)

	state := store.Acquire("chat-1")
	defer store.Release("chat-1")

	assert.Equal(t, "chat-1", state.ID)
	assert.Equal(t, ModeIdle, state.Mode)
	assert.False(t, state.LastSeenAt.IsZero())
	assert.Equal(t, 1, store.Len())
}

func TestAcquireSerializesSameSession(t *testing.T) {
	store := NewStore(30 * time.Minute)

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Acquire("chat-1")
			counter++
			store.Release("chat-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestStatePersistsAcrossAcquires(t *testing.T) {
	store := NewStore(30 * time.Minute)

	state := store.Acquire("chat-1")
	state.Mode = ModeOrdering
	state.Remember(conv.RoleUser, "hola", 10)
	store.Release("chat-1")

	state = store.Acquire("chat-1")
	defer store.Release("chat-1")
	assert.Equal(t, ModeOrdering, state.Mode)
	require.Len(t, state.History, 1)
	assert.Equal(t, "hola", state.History[0].Content)
}

func TestRememberCapsHistory(t *testing.T) {
	state := &State{}
	for i := 0; i < 15; i++ {
		state.Remember(conv.RoleUser, "msg", 10)
	}
	assert.Len(t, state.History, 10)
}

func TestLastTurns(t *testing.T) {
	state := &State{}
	state.Remember(conv.RoleUser, "uno", 10)
	state.Remember(conv.RoleAssistant, "dos", 10)
	state.Remember(conv.RoleUser, "tres", 10)

	turns := state.LastTurns(2)
	require.Len(t, turns, 2)
	assert.Equal(t, "dos", turns[0].Content)
	assert.Equal(t, "tres", turns[1].Content)

	assert.Len(t, state.LastTurns(10), 3)
	assert.Nil(t, state.LastTurns(0))
}

func TestSweepRemovesIdleSessions(t *testing.T) {
	store := NewStore(10 * time.Minute)
	current := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.Acquire("stale")
	store.Release("stale")

	current = current.Add(11 * time.Minute)
	store.Acquire("fresh")
	store.Release("fresh")

	removed := store.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())
}

func TestAcquireSerializesAgainstConcurrentSweeps(t *testing.T) {
	store := NewStore(0)

	done := make(chan struct{})
	var sweeper sync.WaitGroup
	sweeper.Add(1)
	go func() {
		defer sweeper.Done()
		for {
			select {
			case <-done:
				return
			default:
				store.Sweep()
			}
		}
	}()

	const workers, rounds = 8, 200
	var counter int
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				_ = store.Acquire("chat-1")
				counter++
				store.Release("chat-1")
			}
		}()
	}
	wg.Wait()
	close(done)
	sweeper.Wait()

	assert.Equal(t, workers*rounds, counter)
}

func TestSweepSkipsHeldSessions(t *testing.T) {
	store := NewStore(10 * time.Minute)
	current := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	store.Acquire("busy")
	current = current.Add(time.Hour)

	assert.Equal(t, 0, store.Sweep())
	store.Release("busy")
}
