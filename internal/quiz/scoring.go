package quiz

import (
	"math"
	"sort"
)

// ScoreEvent records the outcome of scoring one player against one
// question: how many points they earned and whether their answer was
// correct.
type ScoreEvent struct {
	PlayerID string
	Points   uint
	Correct  bool
}

// ScoreQuestion is the pure scoring function: (question, per-player
// answer, question start time) -> one ScoreEvent per player that has
// an answer recorded. Players without an answer earn nothing and are
// omitted. Disconnected players still score if they answered before
// disconnecting — this function doesn't look at Connected at all.
func ScoreQuestion(q *Question, players map[string]*Player, questionStartTime int64) []ScoreEvent {
	timeWindow := float64(q.TimerSeconds) * 1000
	maxPoints := q.MaxPoints()

	events := make([]ScoreEvent, 0, len(players))
	for id, p := range players {
		answer, ok := p.Answers[q.Id]
		if !ok {
			continue
		}

		correct := answerMatches(answer.AnswerIndices, q.CorrectIndices)
		if !correct {
			events = append(events, ScoreEvent{PlayerID: id, Points: 0, Correct: false})
			continue
		}

		responseTime := float64(answer.Timestamp - questionStartTime)
		timeBonus := 1 - responseTime/timeWindow
		if timeBonus < 0 {
			timeBonus = 0
		}
		points := uint(math.Round(float64(maxPoints) * (0.5 + 0.5*timeBonus)))

		events = append(events, ScoreEvent{PlayerID: id, Points: points, Correct: true})
	}
	return events
}

// ApplyScoreEvents adds each event's points to the matching player's
// score. Scoring happens exactly once per (player, question) because
// the caller only invokes this once per endQuestion.
func ApplyScoreEvents(players map[string]*Player, events []ScoreEvent) {
	for _, ev := range events {
		if p, ok := players[ev.PlayerID]; ok {
			p.Score += ev.Points
		}
	}
}

// answerMatches is an exact-set-equality test between a submitted
// answer and a question's correct indices: same size, same members.
// Implemented as a sorted-slice comparison rather than building a set
// per player, per the scoring Design Note on avoiding per-player
// allocation.
func answerMatches(submitted, correct []int) bool {
	if len(submitted) != len(correct) {
		return false
	}
	a := append([]int(nil), submitted...)
	b := append([]int(nil), correct...)
	sort.Ints(a)
	sort.Ints(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// LeaderboardEntry is a derived, non-persisted leaderboard row.
type LeaderboardEntry struct {
	PlayerID          string `json:"playerId"`
	Nickname          string `json:"nickname"`
	Score             uint   `json:"score"`
	Rank              int    `json:"rank"`
	LastAnswerCorrect bool   `json:"lastAnswerCorrect"`
}

// BuildLeaderboard sorts all players by descending score, breaking
// ties by insertion order (joinSeq), and assigns 1-based ranks.
// lastAnswerCorrect reflects each player's answer to currentQuestion
// only; it is false if currentQuestion is nil or the player didn't
// answer it.
func BuildLeaderboard(players map[string]*Player, currentQuestion *Question) []LeaderboardEntry {
	ordered := make([]*Player, 0, len(players))
	for _, p := range players {
		ordered = append(ordered, p)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		return ordered[i].joinSeq < ordered[j].joinSeq
	})

	entries := make([]LeaderboardEntry, 0, len(ordered))
	for i, p := range ordered {
		correct := false
		if currentQuestion != nil {
			if a, ok := p.Answers[currentQuestion.Id]; ok {
				correct = answerMatches(a.AnswerIndices, currentQuestion.CorrectIndices)
			}
		}
		entries = append(entries, LeaderboardEntry{
			PlayerID:          p.Id,
			Nickname:          p.Nickname,
			Score:             p.Score,
			Rank:              i + 1,
			LastAnswerCorrect: correct,
		})
	}
	return entries
}
