package coordinator

import "log"

// Conn is the transport the gateway hands a Session; it decouples the
// coordinator from any particular WebSocket library.
type Conn interface {
	Send(msg ServerMessage) error
	Close(reason string)
}

// Session is one live connection admitted into a game. PlayerID is
// empty until the socket identifies itself via player_join/rejoin;
// IsHost is decided once, at admission, by the gateway.
type Session struct {
	ID       string
	Conn     Conn
	PlayerID string
	IsHost   bool
}

// Registry tracks the sessions currently admitted to a game. It is
// only ever touched from the Coordinator's single run loop, so it
// needs no locking of its own.
type Registry struct {
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Add(s *Session) {
	r.sessions[s.ID] = s
}

func (r *Registry) Remove(id string) {
	delete(r.sessions, id)
}

func (r *Registry) Get(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Empty() bool {
	return len(r.sessions) == 0
}

func (r *Registry) Len() int {
	return len(r.sessions)
}

// Send is best-effort: a write failure just logs, it never blocks the
// mailbox loop or takes down the game.
func (r *Registry) Send(id string, msg ServerMessage) {
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	if err := s.Conn.Send(msg); err != nil {
		log.Printf("coordinator: send to session %s failed: %v", id, err)
	}
}

func (r *Registry) Broadcast(msg ServerMessage) {
	for id, s := range r.sessions {
		if err := s.Conn.Send(msg); err != nil {
			log.Printf("coordinator: broadcast to session %s failed: %v", id, err)
		}
	}
}

// SessionsForPlayer returns every session currently attributed to a
// player id (ordinarily zero or one; briefly two across a reconnect
// race, both are fine to hand the same state).
func (r *Registry) SessionsForPlayer(playerID string) []*Session {
	var out []*Session
	for _, s := range r.sessions {
		if s.PlayerID == playerID {
			out = append(out, s)
		}
	}
	return out
}
