package coordinator

import (
	"time"

	"quizhost/internal/quiz"
)

// startTicker begins (or restarts) the one active countdown for this
// coordinator. Only ever called from the mailbox goroutine.
func (c *Coordinator) startTicker(seconds int) {
	c.stopTicker()
	c.currentSecondsLeft = seconds
	c.timerRunning = true

	stop := make(chan struct{})
	c.tickerStopCh = stop
	go c.runTicker(stop)
}

func (c *Coordinator) runTicker(stop chan struct{}) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			select {
			case c.delayedCh <- func() { c.onTick(stop) }:
			case <-stop:
				return
			case <-c.stopCh:
				return
			}
		case <-stop:
			return
		case <-c.stopCh:
			return
		}
	}
}

// onTick runs on the mailbox goroutine. stop identifies which ticker
// generation posted it, so a tick from a ticker that was since
// stopped (paused, restarted, question ended) is silently dropped.
func (c *Coordinator) onTick(stop chan struct{}) {
	if c.tickerStopCh != stop {
		return
	}
	c.currentSecondsLeft--
	if c.currentSecondsLeft > 0 {
		c.registry.Broadcast(ServerMessage{
			Type:    "timer_tick",
			Payload: timerTickPayload{SecondsLeft: c.currentSecondsLeft},
		})
		return
	}
	c.endQuestion()
}

func (c *Coordinator) stopTicker() {
	if c.tickerStopCh != nil {
		close(c.tickerStopCh)
		c.tickerStopCh = nil
	}
	c.timerRunning = false
}

func (c *Coordinator) pauseTimer() {
	c.stopTicker()
	c.state.TimerPaused = true
	c.state.PausedAtSecondsLeft = c.currentSecondsLeft
	_ = c.persist()
}

func (c *Coordinator) resumeTimer() {
	if c.state.PausedAtSecondsLeft <= 0 {
		c.state.TimerPaused = false
		_ = c.persist()
		c.endQuestion()
		return
	}

	remaining := c.state.PausedAtSecondsLeft
	c.state.TimerPaused = false
	c.state.PausedAtSecondsLeft = 0
	if err := c.persist(); err != nil {
		return
	}

	c.startTicker(remaining)
	c.registry.Broadcast(ServerMessage{
		Type:    "timer_tick",
		Payload: timerTickPayload{SecondsLeft: remaining},
	})
}

// restartTimerAfterEviction rebuilds the ticker from wall-clock elapsed
// time when any session (host or player) connects mid-question and
// finds no ticker running and none paused — the scenario where the
// coordinator's prior process evicted between question_start and now. timerStarting guards against two
// concurrent callers both deciding to restart it.
func (c *Coordinator) restartTimerAfterEviction() {
	if c.timerRunning || c.state.TimerPaused || c.timerStarting {
		return
	}
	q := c.state.CurrentQuestion()
	if q == nil {
		return
	}

	c.timerStarting = true
	defer func() { c.timerStarting = false }()

	remaining := int64(q.TimerSeconds) - (nowMillis()-c.state.QuestionStartTime)/1000
	if remaining <= 0 {
		c.endQuestion()
		return
	}
	c.startTicker(int(remaining))
}

// secondsLeft reports the current countdown value regardless of
// whether it's coming from a running ticker, a paused snapshot, or
// wall-clock time since the question started (no ticker at all yet).
func (c *Coordinator) secondsLeft(q *quiz.Question) int {
	switch {
	case c.timerRunning:
		return c.currentSecondsLeft
	case c.state.TimerPaused:
		return c.state.PausedAtSecondsLeft
	default:
		remaining := int64(q.TimerSeconds) - (nowMillis()-c.state.QuestionStartTime)/1000
		if remaining < 0 {
			remaining = 0
		}
		return int(remaining)
	}
}
