package gateway

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizhost/internal/coordinator"
	"quizhost/internal/quiz"
)

type memoryAdapter struct {
	mu     sync.Mutex
	states map[string]*quiz.GameState
}

func newMemoryAdapter() *memoryAdapter {
	return &memoryAdapter{states: map[string]*quiz.GameState{}}
}

func (m *memoryAdapter) Load(_ context.Context, gameID string) (*quiz.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[gameID]
	if !ok {
		return nil, coordinator.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *memoryAdapter) Save(_ context.Context, gameID string, state *quiz.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[gameID] = state
	return nil
}

func TestGameDispatch_GetOrCreateIsIdempotent(t *testing.T) {
	d := NewGameDispatch(newMemoryAdapter(), NewPinIndex())

	c1, err := d.GetOrCreate("game-1")
	require.NoError(t, err)
	c2, err := d.GetOrCreate("game-1")
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	c1.Stop()
}

func TestGameDispatch_GetReturnsFalseForUnknownGame(t *testing.T) {
	d := NewGameDispatch(newMemoryAdapter(), NewPinIndex())
	_, ok := d.Get("never-created")
	assert.False(t, ok)
}

func TestGameDispatch_StopAllClearsRegistry(t *testing.T) {
	d := NewGameDispatch(newMemoryAdapter(), NewPinIndex())
	_, err := d.GetOrCreate("game-2")
	require.NoError(t, err)

	d.StopAll()
	_, ok := d.Get("game-2")
	assert.False(t, ok)
}
