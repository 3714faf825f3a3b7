package coordinator

import (
	"encoding/json"

	"quizhost/internal/quiz"
)

// ClientMessage is the tagged-union envelope every inbound WebSocket
// frame decodes into; Payload is routed to a handler by Type.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage is the tagged-union envelope for every outbound frame.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Inbound payloads (§6.1).

type hostCreateQuizPayload struct {
	Quiz quiz.Quiz `json:"quiz"`
}

type playerJoinPayload struct {
	Nickname string `json:"nickname"`
}

type playerRejoinPayload struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

type playerAnswerPayload struct {
	QuestionID    string `json:"questionId"`
	AnswerIndices []int  `json:"answerIndices"`
}

// Outbound payloads (§6.2).

type errorPayload struct {
	Message string `json:"message"`
}

// GameStateView is the role-agnostic snapshot sent as game_state: the
// roster and phase, never the quiz's question content (that's
// delivered, role-filtered, via question_start).
type GameStateView struct {
	Phase                string            `json:"phase"`
	GamePin              string            `json:"gamePin"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
	TotalQuestions       int               `json:"totalQuestions"`
	HostConnected        bool              `json:"hostConnected"`
	Players              []playerRosterRow `json:"players"`
}

type playerRosterRow struct {
	PlayerID  string `json:"playerId"`
	Nickname  string `json:"nickname"`
	Score     uint   `json:"score"`
	Connected bool   `json:"connected"`
}

type playerJoinedPayload struct {
	Player      playerRosterRow `json:"player"`
	PlayerCount int             `json:"playerCount"`
}

type playerRejoinedPayload struct {
	Player      playerRosterRow `json:"player"`
	PlayerCount int             `json:"playerCount"`
}

type playerLeftPayload struct {
	PlayerID    string `json:"playerId"`
	PlayerCount int    `json:"playerCount"`
}

type questionStartPayload struct {
	Question       quiz.QuestionView `json:"question"`
	QuestionIndex  int               `json:"questionIndex"`
	TotalQuestions int               `json:"totalQuestions"`
}

type timerTickPayload struct {
	SecondsLeft int `json:"secondsLeft"`
}

type answerReceivedPayload struct {
	PlayerID string `json:"playerId"`
}

type questionEndPayload struct {
	CorrectIndices []int                   `json:"correctIndices"`
	Scores         []quiz.LeaderboardEntry `json:"scores"`
}

type leaderboardUpdatePayload struct {
	Leaderboard []quiz.LeaderboardEntry `json:"leaderboard"`
}

type podiumRevealPayload struct {
	Position int                     `json:"position"`
	Player   *quiz.LeaderboardEntry `json:"player"`
}

type gameFinishedPayload struct {
	FinalLeaderboard []quiz.LeaderboardEntry `json:"finalLeaderboard"`
}

type gamePausedPayload struct {
	Reason string `json:"reason"`
}

func rosterRow(p *quiz.Player) playerRosterRow {
	return playerRosterRow{
		PlayerID:  p.Id,
		Nickname:  p.Nickname,
		Score:     p.Score,
		Connected: p.Connected,
	}
}
