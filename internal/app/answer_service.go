package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"quizbank-service/internal/domain"

	"github.com/sirupsen/logrus"
)

// SubmissionLock guards a (user, question) pair while an answer is being graded.
type SubmissionLock interface {
	// Acquire returns false when another submission for the pair is in flight.
	Acquire(ctx context.Context, userID, questionID int64) (bool, error)
	Release(ctx context.Context, userID, questionID int64)
}

const (
	msgChoiceMismatch  = "Choice does not belong to this question."
	msgAlreadyAnswered = "You have already answered this question."
)

// AnswerService grades and records user answers.
type AnswerService struct {
	store QuestionStore
	lock  SubmissionLock
	now   func() time.Time
	log   logrus.FieldLogger
}

func NewAnswerService(store QuestionStore, lock SubmissionLock, log logrus.FieldLogger) *AnswerService {
	return NewAnswerServiceWithClock(store, lock, log, time.Now)
}

// NewAnswerServiceWithClock allows deterministic answer timestamps in tests.
func NewAnswerServiceWithClock(store QuestionStore, lock SubmissionLock, log logrus.FieldLogger, now func() time.Time) *AnswerService {
	return &AnswerService{store: store, lock: lock, now: now, log: log}
}

// Submit records userID's choice for questionID. Correctness is computed here
// from the question's current correct choice; callers never supply it.
func (s *AnswerService) Submit(ctx context.Context, questionID, choiceID, userID int64) (domain.UserAnswer, error) {
	acquired, err := s.lock.Acquire(ctx, userID, questionID)
	if err != nil {
		return domain.UserAnswer{}, fmt.Errorf("acquire submission lock: %w", err)
	}
	if !acquired {
		return domain.UserAnswer{}, alreadyAnswered()
	}
	defer s.lock.Release(ctx, userID, questionID)

	var answer domain.UserAnswer
	err = s.store.Atomically(ctx, func(tx QuestionStore) error {
		if _, err := tx.GetQuestion(ctx, questionID); err != nil {
			return err
		}

		choice, err := tx.GetChoice(ctx, choiceID)
		if errors.Is(err, domain.ErrChoiceNotFound) {
			return domain.NewValidationError(domain.ErrInvalidChoice, domain.FieldChoice,
				`Invalid pk "`+strconv.FormatInt(choiceID, 10)+`" - object does not exist.`)
		}
		if err != nil {
			return err
		}
		if choice.QuestionID != questionID {
			return domain.NewValidationError(domain.ErrChoiceMismatch, domain.FieldError, msgChoiceMismatch)
		}

		_, err = tx.FindAnswer(ctx, userID, questionID)
		switch {
		case err == nil:
			return alreadyAnswered()
		case !errors.Is(err, domain.ErrAnswerNotFound):
			return err
		}

		correct, err := tx.CorrectChoice(ctx, questionID)
		if err != nil {
			return fmt.Errorf("correct choice of question %d: %w", questionID, err)
		}

		answer = domain.UserAnswer{
			QuestionID: questionID,
			ChoiceID:   choice.ID,
			UserID:     userID,
			AnsweredAt: s.now(),
			IsCorrect:  choice.ID == correct.ID,
		}
		if err := tx.CreateAnswer(ctx, &answer); err != nil {
			if errors.Is(err, domain.ErrAlreadyAnswered) {
				return alreadyAnswered()
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.UserAnswer{}, err
	}

	s.log.WithFields(logrus.Fields{
		"question_id": questionID,
		"user_id":     userID,
		"correct":     answer.IsCorrect,
	}).Info("answer graded")
	return answer, nil
}

func alreadyAnswered() error {
	return domain.NewValidationError(domain.ErrAlreadyAnswered, domain.FieldError, msgAlreadyAnswered)
}
