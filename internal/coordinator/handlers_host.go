package coordinator

import (
	"encoding/json"
	"time"

	"quizhost/internal/quiz"
)

func handleHostCreateQuiz(c *Coordinator, s *Session, payload json.RawMessage) {
	var req hostCreateQuizPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError(s, "INVALID_MESSAGE: malformed host_create_quiz payload")
		return
	}
	if err := req.Quiz.Validate(); err != nil {
		c.sendError(s, err.Error())
		return
	}

	c.state.Quiz = &req.Quiz
	if err := c.persist(); err != nil {
		return
	}
	c.registry.Broadcast(ServerMessage{Type: "game_state", Payload: c.buildGameStateView()})
}

func handleHostStartGame(c *Coordinator, s *Session, _ json.RawMessage) {
	if c.state.Phase != quiz.PhaseLobby {
		c.sendError(s, "INVALID_PHASE: game is not in lobby")
		return
	}
	if c.state.Quiz == nil || len(c.state.Quiz.Questions) == 0 {
		c.sendError(s, "NO_QUIZ: no quiz has been loaded")
		return
	}
	if c.state.ConnectedPlayerCount() == 0 {
		c.sendError(s, "NO_PLAYERS: at least one connected player is required")
		return
	}

	c.registry.Broadcast(ServerMessage{Type: "game_starting"})
	c.scheduleDelayed(3*time.Second, func() {
		if c.state.Phase != quiz.PhaseLobby {
			return
		}
		c.startQuestion(0)
	})
}

func handleHostNextQuestion(c *Coordinator, s *Session, _ json.RawMessage) {
	if c.state.Phase != quiz.PhaseLeaderboard {
		c.sendError(s, "INVALID_PHASE: can only advance from the leaderboard")
		return
	}
	next := c.state.CurrentQuestionIndex + 1
	if next < len(c.state.Quiz.Questions) {
		c.startQuestion(next)
		return
	}
	c.showPodium()
}

func handleHostShowLeaderboard(c *Coordinator, _ *Session, _ json.RawMessage) {
	c.showLeaderboard()
}

func handleHostShowPodium(c *Coordinator, _ *Session, _ json.RawMessage) {
	c.showPodium()
}
