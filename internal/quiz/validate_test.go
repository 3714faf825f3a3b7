package quiz_test

import (
	"testing"

	"quizhost/internal/quiz"
)

func validQuestion() quiz.Question {
	return quiz.Question{
		Id:             "q1",
		Text:           "2+2?",
		Answers:        [4]string{"3", "4", "5", "6"},
		CorrectIndices: []int{1},
		TimerSeconds:   20,
	}
}

func TestQuizValidate_AcceptsWellFormedQuiz(t *testing.T) {
	q := quiz.Quiz{Title: "Math", Questions: []quiz.Question{validQuestion()}}
	if err := q.Validate(); err != nil {
		t.Fatalf("expected valid quiz, got error: %v", err)
	}
}

func TestQuizValidate_RejectsEmptyTitle(t *testing.T) {
	q := quiz.Quiz{Questions: []quiz.Question{validQuestion()}}
	if err := q.Validate(); err == nil {
		t.Fatal("expected error for empty title")
	}
}

func TestQuizValidate_RejectsNoQuestions(t *testing.T) {
	q := quiz.Quiz{Title: "Empty"}
	if err := q.Validate(); err == nil {
		t.Fatal("expected error for no questions")
	}
}

func TestQuizValidate_RejectsBadTimerSeconds(t *testing.T) {
	for _, bad := range []int{0, 1, 15, 45, 61} {
		question := validQuestion()
		question.TimerSeconds = bad
		q := quiz.Quiz{Title: "T", Questions: []quiz.Question{question}}
		if err := q.Validate(); err == nil {
			t.Errorf("timerSeconds %d should be rejected", bad)
		}
	}
}

func TestQuizValidate_AcceptsAllValidTimerSeconds(t *testing.T) {
	for _, ok := range []int{5, 10, 20, 30, 60} {
		question := validQuestion()
		question.TimerSeconds = ok
		q := quiz.Quiz{Title: "T", Questions: []quiz.Question{question}}
		if err := q.Validate(); err != nil {
			t.Errorf("timerSeconds %d should be accepted, got %v", ok, err)
		}
	}
}

func TestQuizValidate_RejectsEmptyCorrectIndices(t *testing.T) {
	question := validQuestion()
	question.CorrectIndices = nil
	q := quiz.Quiz{Title: "T", Questions: []quiz.Question{question}}
	if err := q.Validate(); err == nil {
		t.Fatal("expected error for empty correctIndices")
	}
}

func TestQuizValidate_RejectsOutOfRangeCorrectIndex(t *testing.T) {
	question := validQuestion()
	question.CorrectIndices = []int{4}
	q := quiz.Quiz{Title: "T", Questions: []quiz.Question{question}}
	if err := q.Validate(); err == nil {
		t.Fatal("expected error for out-of-range correctIndices")
	}
}

func TestQuizValidate_RejectsMissingAnswerText(t *testing.T) {
	question := validQuestion()
	question.Answers[2] = ""
	q := quiz.Quiz{Title: "T", Questions: []quiz.Question{question}}
	if err := q.Validate(); err == nil {
		t.Fatal("expected error for blank answer text")
	}
}

func TestValidAnswerIndices(t *testing.T) {
	cases := []struct {
		indices []int
		want    bool
	}{
		{nil, false},
		{[]int{}, false},
		{[]int{0}, true},
		{[]int{0, 3}, true},
		{[]int{4}, false},
		{[]int{-1}, false},
	}
	for _, c := range cases {
		if got := quiz.ValidAnswerIndices(c.indices); got != c.want {
			t.Errorf("ValidAnswerIndices(%v) = %v, want %v", c.indices, got, c.want)
		}
	}
}

func TestMultipleChoice(t *testing.T) {
	single := validQuestion()
	if single.MultipleChoice() {
		t.Error("single correct index should not be multiple choice")
	}
	multi := validQuestion()
	multi.CorrectIndices = []int{0, 1}
	if !multi.MultipleChoice() {
		t.Error("two correct indices should be multiple choice")
	}
}
