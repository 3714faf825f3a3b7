package gateway

import (
	"fmt"
	"sync"

	"quizhost/internal/coordinator"
)

// GameDispatch is the process-wide registry of live Coordinators,
// keyed by game id, generalizing the teacher's GameManager/Hub
// lookup-or-create behavior to the mailbox-actor model.
type GameDispatch struct {
	store coordinator.PersistenceAdapter
	pins  *PinIndex

	mu           sync.Mutex
	coordinators map[string]*coordinator.Coordinator
}

// NewGameDispatch wires dispatch to pins so a freshly minted game PIN
// is checked against every PIN already handed out and, once chosen,
// registered immediately — closing the window between mint and lookup.
// pins may be nil, in which case PINs are never collision-checked.
func NewGameDispatch(store coordinator.PersistenceAdapter, pins *PinIndex) *GameDispatch {
	return &GameDispatch{
		store:        store,
		pins:         pins,
		coordinators: make(map[string]*coordinator.Coordinator),
	}
}

// GetOrCreate returns the running Coordinator for gameID, constructing
// one (and loading or creating its persisted state) on first use.
func (d *GameDispatch) GetOrCreate(gameID string) (*coordinator.Coordinator, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if c, ok := d.coordinators[gameID]; ok {
		return c, nil
	}

	var isPinUsed func(string) bool
	if d.pins != nil {
		isPinUsed = func(pin string) bool {
			_, taken := d.pins.Lookup(pin)
			return taken
		}
	}

	c, err := coordinator.NewCoordinator(gameID, d.store, isPinUsed)
	if err != nil {
		return nil, fmt.Errorf("gateway: creating coordinator for %s: %w", gameID, err)
	}
	d.coordinators[gameID] = c
	if d.pins != nil {
		d.pins.Put(c.Pin(), gameID)
	}
	return c, nil
}

// Get returns the coordinator for gameID only if it is already
// running, without creating one.
func (d *GameDispatch) Get(gameID string) (*coordinator.Coordinator, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.coordinators[gameID]
	return c, ok
}

// StopAll drains and persists every running coordinator, used during
// graceful shutdown.
func (d *GameDispatch) StopAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, c := range d.coordinators {
		c.Stop()
		delete(d.coordinators, id)
	}
}
