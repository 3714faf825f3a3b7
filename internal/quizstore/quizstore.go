// Package quizstore is the external quiz-authoring collaborator: it
// stores quizzes a host designs ahead of time, independent of any
// in-progress game. Deliberately thin — a Coordinator never talks to
// it directly, only the gateway does, on the host's behalf.
package quizstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/google/uuid"

	"quizhost/internal/quiz"
)

var ErrNotFound = errors.New("quizstore: quiz not found")

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create validates and persists a new quiz, minting its id.
func (s *Store) Create(ctx context.Context, q quiz.Quiz) (quiz.Quiz, error) {
	if q.Id == "" {
		q.Id = uuid.NewString()
	}
	if err := q.Validate(); err != nil {
		return quiz.Quiz{}, err
	}

	raw, err := json.Marshal(q)
	if err != nil {
		return quiz.Quiz{}, fmt.Errorf("quizstore: encoding quiz: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (quiz_id, title, quiz_data) VALUES ($1, $2, $3)`,
		q.Id, q.Title, raw,
	)
	if err != nil {
		return quiz.Quiz{}, fmt.Errorf("quizstore: creating quiz %s: %w", q.Id, err)
	}
	return q, nil
}

// Get retrieves a previously authored quiz by id.
func (s *Store) Get(ctx context.Context, quizID string) (quiz.Quiz, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT quiz_data FROM quizzes WHERE quiz_id = $1`, quizID,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return quiz.Quiz{}, ErrNotFound
	}
	if err != nil {
		return quiz.Quiz{}, fmt.Errorf("quizstore: loading quiz %s: %w", quizID, err)
	}

	var q quiz.Quiz
	if err := json.Unmarshal(raw, &q); err != nil {
		return quiz.Quiz{}, fmt.Errorf("quizstore: decoding quiz %s: %w", quizID, err)
	}
	return q, nil
}
