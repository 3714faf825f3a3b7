package quiz

// QuestionView is the filtered projection of a Question sent to a
// client: correctIndices is never included, imageUrl only for hosts.
type QuestionView struct {
	Id             string    `json:"id"`
	Text           string    `json:"text"`
	ImageUrl       string    `json:"imageUrl,omitempty"`
	Answers        [4]string `json:"answers"`
	TimerSeconds   int       `json:"timerSeconds"`
	DoublePoints   bool      `json:"doublePoints"`
	MultipleChoice bool      `json:"multipleChoice"`
}

// HostView includes imageUrl; PlayerView omits it. Neither ever
// carries correctIndices.
func (q *Question) HostView() QuestionView {
	v := q.baseView()
	v.ImageUrl = q.ImageUrl
	return v
}

func (q *Question) PlayerView() QuestionView {
	return q.baseView()
}

func (q *Question) baseView() QuestionView {
	return QuestionView{
		Id:             q.Id,
		Text:           q.Text,
		Answers:        q.Answers,
		TimerSeconds:   q.TimerSeconds,
		DoublePoints:   q.DoublePoints,
		MultipleChoice: q.MultipleChoice(),
	}
}

// Clone deep-copies a GameState so a Coordinator never hands its live,
// mutable struct to a caller building a snapshot for persistence or
// broadcast.
func (gs *GameState) Clone() *GameState {
	clone := &GameState{
		Phase:                gs.Phase,
		GamePin:              gs.GamePin,
		CurrentQuestionIndex: gs.CurrentQuestionIndex,
		QuestionStartTime:    gs.QuestionStartTime,
		HostConnected:        gs.HostConnected,
		TimerPaused:          gs.TimerPaused,
		PausedAtSecondsLeft:  gs.PausedAtSecondsLeft,
		joinCounter:          gs.joinCounter,
		Players:              make(map[string]*Player, len(gs.Players)),
	}

	if gs.Quiz != nil {
		q := *gs.Quiz
		q.Questions = append([]Question(nil), gs.Quiz.Questions...)
		clone.Quiz = &q
	}

	for id, p := range gs.Players {
		pc := *p
		pc.Answers = make(map[string]Answer, len(p.Answers))
		for qid, a := range p.Answers {
			pc.Answers[qid] = a
		}
		clone.Players[id] = &pc
	}

	return clone
}
