package coordinator

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"quizhost/internal/quiz"
)

const maxPlayers = 200

func handlePlayerJoin(c *Coordinator, s *Session, payload json.RawMessage) {
	var req playerJoinPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError(s, "INVALID_MESSAGE: malformed player_join payload")
		return
	}
	c.joinPlayer(s, req.Nickname)
}

func (c *Coordinator) joinPlayer(s *Session, nickname string) {
	if c.state.Phase != quiz.PhaseLobby {
		c.sendError(s, "INVALID_PHASE: can only join during the lobby")
		return
	}

	nickname = strings.TrimSpace(nickname)
	if n := utf8.RuneCountInString(nickname); n == 0 || n > 50 {
		c.sendError(s, "INVALID_NICKNAME: nickname must be 1-50 characters")
		return
	}
	if c.state.FindPlayerByNickname(nickname) != nil {
		c.sendError(s, "NICKNAME_TAKEN: that nickname is already in use")
		return
	}
	if len(c.state.Players) >= maxPlayers {
		c.sendError(s, "GAME_FULL: this game has reached its player limit")
		return
	}

	player := &quiz.Player{
		Id:        newPlayerID(),
		Nickname:  nickname,
		Connected: true,
		Answers:   map[string]quiz.Answer{},
	}
	player.SetJoinSeq(c.state.NextJoinSeq())
	c.state.Players[player.Id] = player
	s.PlayerID = player.Id

	if err := c.persist(); err != nil {
		delete(c.state.Players, player.Id)
		s.PlayerID = ""
		return
	}

	c.registry.Broadcast(ServerMessage{
		Type: "player_joined",
		Payload: playerJoinedPayload{
			Player:      rosterRow(player),
			PlayerCount: c.state.ConnectedPlayerCount(),
		},
	})
	c.sendGameState(s)
}

func handlePlayerRejoin(c *Coordinator, s *Session, payload json.RawMessage) {
	var req playerRejoinPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError(s, "INVALID_MESSAGE: malformed player_rejoin payload")
		return
	}

	player, ok := c.state.Players[req.PlayerID]
	if !ok {
		if c.state.Phase == quiz.PhaseLobby {
			c.joinPlayer(s, req.Nickname)
			return
		}
		c.sendError(s, "PLAYER_NOT_FOUND: no such player in this game")
		return
	}
	if !strings.EqualFold(strings.TrimSpace(player.Nickname), strings.TrimSpace(req.Nickname)) {
		c.sendError(s, "NICKNAME_MISMATCH: nickname does not match this player id")
		return
	}

	player.Connected = true
	s.PlayerID = player.Id
	if err := c.persist(); err != nil {
		return
	}

	c.registry.Broadcast(ServerMessage{
		Type: "player_rejoined",
		Payload: playerRejoinedPayload{
			Player:      rosterRow(player),
			PlayerCount: c.state.ConnectedPlayerCount(),
		},
	})
	c.sendGameState(s)
	c.sendCatchUp(s)
}

func handlePlayerAnswer(c *Coordinator, s *Session, payload json.RawMessage) {
	if s.PlayerID == "" {
		c.sendError(s, "NOT_JOINED: you have not joined this game")
		return
	}
	player, ok := c.state.Players[s.PlayerID]
	if !ok {
		c.sendError(s, "PLAYER_NOT_FOUND: no such player in this game")
		return
	}
	if c.state.Phase != quiz.PhaseQuestion {
		c.sendError(s, "INVALID_PHASE: no question is active")
		return
	}

	var req playerAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError(s, "INVALID_MESSAGE: malformed player_answer payload")
		return
	}

	q := c.state.CurrentQuestion()
	if q == nil || req.QuestionID != q.Id {
		c.sendError(s, "STALE_ANSWER: that question is no longer active")
		return
	}
	if _, already := player.Answers[q.Id]; already {
		c.sendError(s, "ALREADY_ANSWERED: you have already answered this question")
		return
	}
	if !quiz.ValidAnswerIndices(req.AnswerIndices) {
		c.sendError(s, "INVALID_ANSWER: answerIndices out of range")
		return
	}

	player.Answers[q.Id] = quiz.Answer{
		AnswerIndices: req.AnswerIndices,
		Timestamp:     nowMillis(),
	}
	if err := c.persist(); err != nil {
		delete(player.Answers, q.Id)
		return
	}

	c.registry.Broadcast(ServerMessage{
		Type:    "answer_received",
		Payload: answerReceivedPayload{PlayerID: player.Id},
	})

	if c.timerRunning && !c.state.TimerPaused && c.allConnectedPlayersAnswered(q) {
		c.endQuestion()
	}
}

func (c *Coordinator) allConnectedPlayersAnswered(q *quiz.Question) bool {
	any := false
	for _, p := range c.state.Players {
		if !p.Connected {
			continue
		}
		any = true
		if _, ok := p.Answers[q.Id]; !ok {
			return false
		}
	}
	return any
}

func newPlayerID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
