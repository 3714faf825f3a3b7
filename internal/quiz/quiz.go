// Package quiz holds the domain model for a quiz session: the quiz
// itself, players, and the in-memory GameState a Coordinator owns.
package quiz

import "strings"

// Phase is one of the five stops in a session's lifecycle.
type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhaseQuestion    Phase = "question"
	PhaseLeaderboard Phase = "leaderboard"
	PhasePodium      Phase = "podium"
	PhaseFinished    Phase = "finished"
)

// validTimerSeconds enumerates the only accepted countdown lengths.
var validTimerSeconds = map[int]bool{5: true, 10: true, 20: true, 30: true, 60: true}

type Quiz struct {
	Id        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

type Question struct {
	Id            string `json:"id"`
	Text          string `json:"text"`
	ImageUrl      string `json:"imageUrl,omitempty"`
	Answers       [4]string `json:"answers"`
	CorrectIndices []int `json:"correctIndices"`
	TimerSeconds  int    `json:"timerSeconds"`
	DoublePoints  bool   `json:"doublePoints"`
}

// MaxPoints is 1000, doubled when the question flags doublePoints.
func (q *Question) MaxPoints() uint {
	if q.DoublePoints {
		return 2000
	}
	return 1000
}

// Answer is a single player's submission for one question.
type Answer struct {
	AnswerIndices []int `json:"answerIndices"`
	Timestamp     int64 `json:"timestamp"`
}

type Player struct {
	Id        string            `json:"id"`
	Nickname  string            `json:"nickname"`
	Score     uint              `json:"score"`
	Answers   map[string]Answer `json:"answers"`
	Connected bool              `json:"connected"`

	// joinSeq is the insertion order used to break leaderboard score
	// ties; it is never serialized to a client, only persisted.
	joinSeq int
}

// JoinSeq exposes the insertion-order tiebreak key to package-level
// helpers (e.g. the leaderboard sort) without making it part of the
// JSON wire shape.
func (p *Player) JoinSeq() int { return p.joinSeq }

func (p *Player) SetJoinSeq(n int) { p.joinSeq = n }

type GameState struct {
	Phase                Phase              `json:"phase"`
	GamePin              string             `json:"gamePin"`
	Quiz                 *Quiz              `json:"quiz,omitempty"`
	Players              map[string]*Player `json:"players"`
	CurrentQuestionIndex int                `json:"currentQuestionIndex"`
	QuestionStartTime    int64              `json:"questionStartTime,omitempty"`
	HostConnected        bool               `json:"hostConnected"`
	TimerPaused          bool               `json:"timerPaused"`
	PausedAtSecondsLeft  int                `json:"pausedAtSecondsLeft,omitempty"`

	// joinCounter mints the next Player.joinSeq value.
	joinCounter int
}

// NewGameState creates a fresh lobby with the given PIN.
func NewGameState(pin string) *GameState {
	return &GameState{
		Phase:                PhaseLobby,
		GamePin:              pin,
		Players:              make(map[string]*Player),
		CurrentQuestionIndex: -1,
	}
}

// NextJoinSeq mints and reserves the next insertion-order value.
func (gs *GameState) NextJoinSeq() int {
	gs.joinCounter++
	return gs.joinCounter
}

// CurrentQuestion returns the question at CurrentQuestionIndex, or nil
// if there isn't one (lobby, or index out of range).
func (gs *GameState) CurrentQuestion() *Question {
	if gs.Quiz == nil || gs.CurrentQuestionIndex < 0 || gs.CurrentQuestionIndex >= len(gs.Quiz.Questions) {
		return nil
	}
	return &gs.Quiz.Questions[gs.CurrentQuestionIndex]
}

// IsLastQuestion reports whether CurrentQuestionIndex is the final one.
func (gs *GameState) IsLastQuestion() bool {
	return gs.Quiz != nil && gs.CurrentQuestionIndex == len(gs.Quiz.Questions)-1
}

// ConnectedPlayerCount counts players currently marked connected.
func (gs *GameState) ConnectedPlayerCount() int {
	n := 0
	for _, p := range gs.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// FindPlayerByNickname does a case-insensitive, trimmed lookup, used by
// both player_join (duplicate rejection) and player_rejoin (nickname
// match).
func (gs *GameState) FindPlayerByNickname(nickname string) *Player {
	norm := normalizeNickname(nickname)
	for _, p := range gs.Players {
		if normalizeNickname(p.Nickname) == norm {
			return p
		}
	}
	return nil
}

func normalizeNickname(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
