// Package coordinator implements the per-game actor that owns a
// GameState: every mutation — inbound messages, connects and
// disconnects, timer ticks, delayed phase transitions — flows through
// one serialized mailbox loop, the finished shape of the channel
// select the teacher left stubbed out in its Room.run.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"quizhost/internal/quiz"
)

// ErrNotFound is returned by a PersistenceAdapter when no snapshot
// exists yet for a game id.
var ErrNotFound = errors.New("coordinator: game not found")

// PersistenceAdapter is the storage side of a Coordinator. Save is
// always called with a fully detached snapshot (quiz.GameState.Clone),
// so an implementation never races the mailbox loop.
type PersistenceAdapter interface {
	Load(ctx context.Context, gameID string) (*quiz.GameState, error)
	Save(ctx context.Context, gameID string, state *quiz.GameState) error
}

type inboundEvent struct {
	session *Session
	raw     []byte
}

// Coordinator is the single-writer actor for one game. All exported
// methods just hand an event to the mailbox; every actual mutation
// happens inside run, on one goroutine.
type Coordinator struct {
	gameID string
	store  PersistenceAdapter
	state  *quiz.GameState

	registry *Registry

	connectCh    chan *Session
	disconnectCh chan *Session
	inboundCh    chan inboundEvent
	delayedCh    chan func()
	stopCh       chan struct{}
	stopped      chan struct{}

	tickerStopCh       chan struct{}
	timerRunning       bool
	currentSecondsLeft int
	timerStarting      bool
	questionEnding     bool
}

// NewCoordinator loads or creates the game's state synchronously
// (mirroring a blockConcurrencyWhile-style constructor) and then
// starts the mailbox loop. isPinUsed, if non-nil, is consulted when
// minting a PIN for a brand new game so the caller can reject a
// collision against PINs it's already handed out; pass nil to accept
// whatever GeneratePIN first returns.
func NewCoordinator(gameID string, store PersistenceAdapter, isPinUsed func(pin string) bool) (*Coordinator, error) {
	ctx := context.Background()
	state, err := store.Load(ctx, gameID)
	switch {
	case errors.Is(err, ErrNotFound):
		state = quiz.NewGameState(GeneratePIN(isPinUsed))
		if err := store.Save(ctx, gameID, state.Clone()); err != nil {
			return nil, fmt.Errorf("coordinator: create %s: %w", gameID, err)
		}
	case err != nil:
		return nil, fmt.Errorf("coordinator: load %s: %w", gameID, err)
	default:
		state.HostConnected = false
		for _, p := range state.Players {
			p.Connected = false
		}
		if state.Phase == quiz.PhaseQuestion {
			q := state.CurrentQuestion()
			if q != nil {
				elapsedMs := nowMillis() - state.QuestionStartTime
				if elapsedMs >= int64(q.TimerSeconds)*1000 {
					quiz.ApplyScoreEvents(state.Players, quiz.ScoreQuestion(q, state.Players, state.QuestionStartTime))
					state.Phase = quiz.PhaseLeaderboard
					state.TimerPaused = false
					state.PausedAtSecondsLeft = 0
				}
			}
		}
		if err := store.Save(ctx, gameID, state.Clone()); err != nil {
			return nil, fmt.Errorf("coordinator: resave %s on load: %w", gameID, err)
		}
	}

	c := &Coordinator{
		gameID:       gameID,
		store:        store,
		state:        state,
		registry:     NewRegistry(),
		connectCh:    make(chan *Session),
		disconnectCh: make(chan *Session),
		inboundCh:    make(chan inboundEvent),
		delayedCh:    make(chan func(), 8),
		stopCh:       make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	go c.run()
	return c, nil
}

// Connect admits a new session. It blocks until the mailbox accepts it
// or the coordinator has already stopped.
func (c *Coordinator) Connect(s *Session) {
	select {
	case c.connectCh <- s:
	case <-c.stopCh:
	}
}

func (c *Coordinator) Disconnect(s *Session) {
	select {
	case c.disconnectCh <- s:
	case <-c.stopCh:
	}
}

func (c *Coordinator) Inbound(s *Session, raw []byte) {
	select {
	case c.inboundCh <- inboundEvent{session: s, raw: raw}:
	case <-c.stopCh:
	}
}

// Pin returns the game's join PIN without entering the mailbox; it
// never changes after creation, so this is safe unsynchronized.
func (c *Coordinator) Pin() string {
	return c.state.GamePin
}

// Stop drains the mailbox loop and waits for it to exit.
func (c *Coordinator) Stop() {
	close(c.stopCh)
	<-c.stopped
}

func (c *Coordinator) run() {
	defer close(c.stopped)
	for {
		select {
		case s := <-c.connectCh:
			c.handleConnect(s)
		case s := <-c.disconnectCh:
			c.handleDisconnect(s)
		case ev := <-c.inboundCh:
			c.handleInbound(ev.session, ev.raw)
		case fn := <-c.delayedCh:
			fn()
		case <-c.stopCh:
			c.registry.Broadcast(ServerMessage{Type: "server_shutting_down"})
			c.stopTicker()
			if err := c.persist(); err != nil {
				log.Printf("coordinator %s: final persist on stop failed: %v", c.gameID, err)
			}
			return
		}
	}
}

func (c *Coordinator) persist() error {
	err := c.store.Save(context.Background(), c.gameID, c.state.Clone())
	if err != nil {
		log.Printf("coordinator %s: persist failed: %v", c.gameID, err)
	}
	return err
}

func (c *Coordinator) sendError(s *Session, message string) {
	if s == nil {
		return
	}
	if err := s.Conn.Send(ServerMessage{Type: "error", Payload: errorPayload{Message: message}}); err != nil {
		log.Printf("coordinator %s: send error to session %s failed: %v", c.gameID, s.ID, err)
	}
}

// scheduleDelayed posts fn onto the mailbox after d, so the closure
// still runs on the single serialized goroutine. fn must re-check any
// phase precondition it depends on — the game may have moved on by
// the time it fires.
func (c *Coordinator) scheduleDelayed(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		select {
		case c.delayedCh <- fn:
		case <-c.stopCh:
		}
	})
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// GeneratePIN mints a 6-digit join PIN, retrying against isUsed the
// way the teacher's GenerateRoomCode retries against its usedCodes
// set. isUsed may be nil, in which case the first candidate wins.
func GeneratePIN(isUsed func(pin string) bool) string {
	for i := 0; i < 100; i++ {
		pin := fmt.Sprintf("%06d", rand.Intn(900000)+100000)
		if isUsed == nil || !isUsed(pin) {
			return pin
		}
	}
	return fmt.Sprintf("%06d", rand.Intn(900000)+100000)
}
