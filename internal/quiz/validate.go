package quiz

import "fmt"

// Validate enforces the strict structural rules host_create_quiz must
// apply: a non-empty title, at least one question, and every question
// well-formed. This specification requires strict validation and does
// not relax it for any timerSeconds value outside the enumerated set.
func (q *Quiz) Validate() error {
	if q.Title == "" {
		return fmt.Errorf("QUIZ_INVALID: title must not be empty")
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("QUIZ_INVALID: quiz must have at least one question")
	}
	for i := range q.Questions {
		if err := q.Questions[i].validate(); err != nil {
			return fmt.Errorf("QUIZ_INVALID: question %d: %w", i, err)
		}
	}
	return nil
}

func (q *Question) validate() error {
	if q.Id == "" {
		return fmt.Errorf("id must not be empty")
	}
	if q.Text == "" {
		return fmt.Errorf("text must not be empty")
	}
	for _, a := range q.Answers {
		if a == "" {
			return fmt.Errorf("all four answers must be non-empty")
		}
	}
	if len(q.CorrectIndices) == 0 {
		return fmt.Errorf("correctIndices must not be empty")
	}
	seen := make(map[int]bool, len(q.CorrectIndices))
	for _, idx := range q.CorrectIndices {
		if idx < 0 || idx > 3 {
			return fmt.Errorf("correctIndices must be within 0..3, got %d", idx)
		}
		seen[idx] = true
	}
	if !validTimerSeconds[q.TimerSeconds] {
		return fmt.Errorf("timerSeconds must be one of 5, 10, 20, 30, 60, got %d", q.TimerSeconds)
	}
	return nil
}

// ValidAnswerIndices reports whether a submitted answer is a non-empty
// set drawn only from {0,1,2,3}, rejecting duplicates implicitly via
// the exact-set-match scoring comparison rather than here.
func ValidAnswerIndices(indices []int) bool {
	if len(indices) == 0 {
		return false
	}
	for _, idx := range indices {
		if idx < 0 || idx > 3 {
			return false
		}
	}
	return true
}

// MultipleChoice reports whether more than one index is correct, the
// flag a client uses to decide whether to render a multi-select UI.
func (q *Question) MultipleChoice() bool {
	return len(q.CorrectIndices) > 1
}
