package coordinator

import (
	"time"

	"quizhost/internal/quiz"
)

func (c *Coordinator) handleConnect(s *Session) {
	c.registry.Add(s)

	if s.IsHost {
		wasDisconnected := !c.state.HostConnected
		c.state.HostConnected = true
		if wasDisconnected && c.state.Phase == quiz.PhaseQuestion && c.state.TimerPaused {
			c.resumeTimer()
			c.registry.Broadcast(ServerMessage{Type: "game_resumed"})
		}
	}

	c.sendGameState(s)
	c.sendCatchUp(s)
}

func (c *Coordinator) handleDisconnect(s *Session) {
	c.registry.Remove(s.ID)

	if s.IsHost {
		c.state.HostConnected = false
		if c.state.Phase == quiz.PhaseQuestion && c.timerRunning && !c.state.TimerPaused {
			c.pauseTimer()
			c.registry.Broadcast(ServerMessage{
				Type:    "game_paused",
				Payload: gamePausedPayload{Reason: "Host disconnected"},
			})
		}
	} else if s.PlayerID != "" {
		if p, ok := c.state.Players[s.PlayerID]; ok {
			p.Connected = false
			_ = c.persist()
			c.registry.Broadcast(ServerMessage{
				Type: "player_left",
				Payload: playerLeftPayload{
					PlayerID:    s.PlayerID,
					PlayerCount: c.state.ConnectedPlayerCount(),
				},
			})
		}
	}

	if c.registry.Empty() {
		c.stopTicker()
	}
}

func (c *Coordinator) startQuestion(index int) {
	q := &c.state.Quiz.Questions[index]
	c.state.Phase = quiz.PhaseQuestion
	c.state.CurrentQuestionIndex = index
	c.state.QuestionStartTime = nowMillis()
	c.state.TimerPaused = false
	c.state.PausedAtSecondsLeft = 0
	if err := c.persist(); err != nil {
		return
	}

	for _, s := range c.registry.sessions {
		view := q.PlayerView()
		if s.IsHost {
			view = q.HostView()
		}
		_ = s.Conn.Send(ServerMessage{
			Type: "question_start",
			Payload: questionStartPayload{
				Question:       view,
				QuestionIndex:  index,
				TotalQuestions: len(c.state.Quiz.Questions),
			},
		})
	}

	c.startTicker(q.TimerSeconds)
}

// endQuestion scores the active question and broadcasts question_end.
// It is idempotent: a stale ticker tick and an early-termination check
// racing the same instant both converge here safely.
func (c *Coordinator) endQuestion() {
	if c.questionEnding || c.state.Phase != quiz.PhaseQuestion {
		return
	}
	c.questionEnding = true
	defer func() { c.questionEnding = false }()

	c.stopTicker()
	q := c.state.CurrentQuestion()
	if q == nil {
		return
	}

	events := quiz.ScoreQuestion(q, c.state.Players, c.state.QuestionStartTime)
	quiz.ApplyScoreEvents(c.state.Players, events)
	if err := c.persist(); err != nil {
		return
	}

	board := quiz.BuildLeaderboard(c.state.Players, q)
	c.registry.Broadcast(ServerMessage{
		Type: "question_end",
		Payload: questionEndPayload{
			CorrectIndices: q.CorrectIndices,
			Scores:         board,
		},
	})

	if c.state.IsLastQuestion() {
		c.scheduleDelayed(3*time.Second, func() {
			if c.state.Phase != quiz.PhaseQuestion {
				return
			}
			c.showPodium()
		})
		return
	}
	c.scheduleDelayed(3*time.Second, func() {
		if c.state.Phase != quiz.PhaseQuestion {
			return
		}
		c.showLeaderboard()
	})
}

func (c *Coordinator) showLeaderboard() {
	c.state.Phase = quiz.PhaseLeaderboard
	if err := c.persist(); err != nil {
		return
	}
	board := quiz.BuildLeaderboard(c.state.Players, c.state.CurrentQuestion())
	c.registry.Broadcast(ServerMessage{
		Type:    "leaderboard_update",
		Payload: leaderboardUpdatePayload{Leaderboard: board},
	})
}

func (c *Coordinator) showPodium() {
	c.state.Phase = quiz.PhasePodium
	if err := c.persist(); err != nil {
		return
	}

	c.scheduleDelayed(1*time.Second, func() {
		if c.state.Phase != quiz.PhasePodium {
			return
		}
		c.revealPodium(3)
	})
	c.scheduleDelayed(3*time.Second, func() {
		if c.state.Phase != quiz.PhasePodium {
			return
		}
		c.revealPodium(2)
	})
	c.scheduleDelayed(5*time.Second, func() {
		if c.state.Phase != quiz.PhasePodium {
			return
		}
		c.revealPodium(1)
		c.finishGame()
	})
}

func (c *Coordinator) revealPodium(position int) {
	board := quiz.BuildLeaderboard(c.state.Players, nil)
	var entry *quiz.LeaderboardEntry
	for i := range board {
		if board[i].Rank == position {
			entry = &board[i]
			break
		}
	}
	c.registry.Broadcast(ServerMessage{
		Type:    "podium_reveal",
		Payload: podiumRevealPayload{Position: position, Player: entry},
	})
}

func (c *Coordinator) finishGame() {
	c.state.Phase = quiz.PhaseFinished
	if err := c.persist(); err != nil {
		return
	}
	board := quiz.BuildLeaderboard(c.state.Players, nil)
	c.registry.Broadcast(ServerMessage{
		Type:    "game_finished",
		Payload: gameFinishedPayload{FinalLeaderboard: board},
	})
}

func (c *Coordinator) buildGameStateView() GameStateView {
	view := GameStateView{
		Phase:                string(c.state.Phase),
		GamePin:              c.state.GamePin,
		CurrentQuestionIndex: c.state.CurrentQuestionIndex,
		HostConnected:        c.state.HostConnected,
		Players:              make([]playerRosterRow, 0, len(c.state.Players)),
	}
	if c.state.Quiz != nil {
		view.TotalQuestions = len(c.state.Quiz.Questions)
	}
	for _, p := range c.state.Players {
		view.Players = append(view.Players, rosterRow(p))
	}
	return view
}

func (c *Coordinator) sendGameState(s *Session) {
	_ = s.Conn.Send(ServerMessage{Type: "game_state", Payload: c.buildGameStateView()})
}
