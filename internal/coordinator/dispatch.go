package coordinator

import (
	"encoding/json"
	"fmt"
)

type handlerFunc func(c *Coordinator, s *Session, payload json.RawMessage)

var dispatchTable = map[string]handlerFunc{
	"host_create_quiz":    hostRequired(handleHostCreateQuiz),
	"host_start_game":     hostRequired(handleHostStartGame),
	"host_next_question":  hostRequired(handleHostNextQuestion),
	"host_show_leaderboard": hostRequired(handleHostShowLeaderboard),
	"host_show_podium":    hostRequired(handleHostShowPodium),
	"player_join":         playerRequired(handlePlayerJoin),
	"player_rejoin":       playerRequired(handlePlayerRejoin),
	"player_answer":       playerRequired(handlePlayerAnswer),
}

func hostRequired(fn handlerFunc) handlerFunc {
	return func(c *Coordinator, s *Session, payload json.RawMessage) {
		if !s.IsHost {
			c.sendError(s, "FORBIDDEN: host-only message")
			return
		}
		fn(c, s, payload)
	}
}

func playerRequired(fn handlerFunc) handlerFunc {
	return func(c *Coordinator, s *Session, payload json.RawMessage) {
		if s.IsHost {
			c.sendError(s, "FORBIDDEN: player-only message")
			return
		}
		fn(c, s, payload)
	}
}

func (c *Coordinator) handleInbound(s *Session, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError(s, "INVALID_MESSAGE: malformed JSON")
		return
	}

	handler, ok := dispatchTable[msg.Type]
	if !ok {
		c.sendError(s, fmt.Sprintf("UNKNOWN_MESSAGE_TYPE: %s", msg.Type))
		return
	}
	handler(c, s, msg.Payload)
}
