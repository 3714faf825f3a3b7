package coordinator

import "quizhost/internal/quiz"

// sendCatchUp sends the phase-appropriate follow-up messages a newly
// admitted (or rejoining) socket needs to render the current screen
// without replaying history. sendGameState has already gone out by
// the time this runs.
func (c *Coordinator) sendCatchUp(s *Session) {
	switch c.state.Phase {
	case quiz.PhaseQuestion:
		c.catchUpQuestion(s)
	case quiz.PhaseLeaderboard:
		board := quiz.BuildLeaderboard(c.state.Players, c.state.CurrentQuestion())
		_ = s.Conn.Send(ServerMessage{
			Type:    "leaderboard_update",
			Payload: leaderboardUpdatePayload{Leaderboard: board},
		})
	case quiz.PhasePodium:
		c.sendPodiumSequence(s)
	case quiz.PhaseFinished:
		c.sendPodiumSequence(s)
		board := quiz.BuildLeaderboard(c.state.Players, nil)
		_ = s.Conn.Send(ServerMessage{
			Type:    "game_finished",
			Payload: gameFinishedPayload{FinalLeaderboard: board},
		})
	}
}

func (c *Coordinator) catchUpQuestion(s *Session) {
	q := c.state.CurrentQuestion()
	if q == nil {
		return
	}

	view := q.PlayerView()
	if s.IsHost {
		view = q.HostView()
	}
	_ = s.Conn.Send(ServerMessage{
		Type: "question_start",
		Payload: questionStartPayload{
			Question:       view,
			QuestionIndex:  c.state.CurrentQuestionIndex,
			TotalQuestions: len(c.state.Quiz.Questions),
		},
	})
	_ = s.Conn.Send(ServerMessage{
		Type:    "timer_tick",
		Payload: timerTickPayload{SecondsLeft: c.secondsLeft(q)},
	})

	if !c.timerRunning && !c.state.TimerPaused {
		c.restartTimerAfterEviction()
	}
}

func (c *Coordinator) sendPodiumSequence(s *Session) {
	board := quiz.BuildLeaderboard(c.state.Players, nil)
	for _, position := range []int{3, 2, 1} {
		var entry *quiz.LeaderboardEntry
		for i := range board {
			if board[i].Rank == position {
				entry = &board[i]
				break
			}
		}
		_ = s.Conn.Send(ServerMessage{
			Type:    "podium_reveal",
			Payload: podiumRevealPayload{Position: position, Player: entry},
		})
	}
}
