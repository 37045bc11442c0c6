package state

import (
	"sync"
	"time"
)

// Store holds the canonical current expressive state. No logic beyond
// controlled mutation and snapshot reads; resolution happens in the
// orchestrator.
type Store struct {
	mu      sync.RWMutex
	current ExpressiveState
	version uint64
}

// NewStore creates a store with the session defaults.
func NewStore(defaultEmotion Emotion, defaultIntensity float64) *Store {
	return &Store{
		current: ExpressiveState{
			Emotion:   defaultEmotion,
			Intensity: ClampIntensity(defaultIntensity),
			TaskFocus: TaskFocusIdle,
		},
	}
}

// Snapshot returns a versioned copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ExpressiveState: s.current,
		Version:         s.version,
		At:              time.Now(),
	}
}

// Update resolves the next state from the current one under the write
// lock, so concurrent read-modify-write callers never lose each other's
// fields. The version bumps on every call, including calls that do not
// change any field (an empty partial still re-dispatches).
func (s *Store) Update(fn func(ExpressiveState) ExpressiveState) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := fn(s.current)
	st.Intensity = ClampIntensity(st.Intensity)
	s.current = st
	s.version++
	return Snapshot{
		ExpressiveState: s.current,
		Version:         s.version,
		At:              time.Now(),
	}
}

// Set overwrites the state wholesale. Callers resolving against the
// current state use Update instead.
func (s *Store) Set(st ExpressiveState) Snapshot {
	return s.Update(func(ExpressiveState) ExpressiveState { return st })
}
