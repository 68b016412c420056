package app

import (
	"context"
	"sort"
	"time"

	"quizbank-service/internal/domain"

	"github.com/sirupsen/logrus"
)

// QuestionStore abstracts how questions, choices and answers are persisted (in-memory, Postgres).
type QuestionStore interface {
	// Atomically runs fn against a transactional view of the store. If fn
	// returns an error nothing it wrote is kept.
	Atomically(ctx context.Context, fn func(QuestionStore) error) error

	CreateQuestion(ctx context.Context, q *domain.Question) error
	CreateChoice(ctx context.Context, c *domain.Choice) error
	GetQuestion(ctx context.Context, id int64) (domain.Question, error)
	ListQuestions(ctx context.Context) ([]domain.Question, error)
	UpdateQuestion(ctx context.Context, q domain.Question) error
	UpdateChoice(ctx context.Context, c domain.Choice) error
	DeleteQuestion(ctx context.Context, id int64) error

	GetChoice(ctx context.Context, id int64) (domain.Choice, error)
	CorrectChoice(ctx context.Context, questionID int64) (domain.Choice, error)

	FindAnswer(ctx context.Context, userID, questionID int64) (domain.UserAnswer, error)
	CreateAnswer(ctx context.Context, a *domain.UserAnswer) error
}

// QuestionService authors and edits question aggregates.
type QuestionService struct {
	store     QuestionStore
	validator *InputValidator
	now       func() time.Time
	log       logrus.FieldLogger
}

func NewQuestionService(store QuestionStore, log logrus.FieldLogger) *QuestionService {
	return NewQuestionServiceWithClock(store, log, time.Now)
}

// NewQuestionServiceWithClock pins the clock used for the future-year check.
func NewQuestionServiceWithClock(store QuestionStore, log logrus.FieldLogger, now func() time.Time) *QuestionService {
	return &QuestionService{
		store:     store,
		validator: NewInputValidator(),
		now:       now,
		log:       log,
	}
}

// Create stores a question with its full choice set as one unit. Choice ids
// in the input are ignored.
func (s *QuestionService) Create(ctx context.Context, in QuestionInput) (domain.Question, error) {
	if err := s.validator.Question(in, s.now()); err != nil {
		return domain.Question{}, err
	}

	question := domain.Question{
		Stem:           in.Stem,
		Year:           in.Year,
		EducationLevel: in.EducationLevel,
	}
	err := s.store.Atomically(ctx, func(tx QuestionStore) error {
		if err := tx.CreateQuestion(ctx, &question); err != nil {
			return err
		}
		question.Choices = make([]domain.Choice, 0, len(in.Choices))
		for _, ci := range in.Choices {
			choice := domain.Choice{
				QuestionID:   question.ID,
				Text:         ci.Text,
				IsCorrect:    ci.IsCorrect,
				DisplayOrder: ci.DisplayOrder,
			}
			if err := tx.CreateChoice(ctx, &choice); err != nil {
				return err
			}
			question.Choices = append(question.Choices, choice)
		}
		return nil
	})
	if err != nil {
		return domain.Question{}, err
	}

	s.log.WithFields(logrus.Fields{
		"question_id": question.ID,
		"level":       question.EducationLevel.Label(),
		"choices":     len(question.Choices),
	}).Info("question created")
	return question, nil
}

// Get returns a question with its choices ordered by display order.
func (s *QuestionService) Get(ctx context.Context, id int64) (domain.Question, error) {
	return s.store.GetQuestion(ctx, id)
}

// List returns every question ordered by id.
func (s *QuestionService) List(ctx context.Context) ([]domain.Question, error) {
	return s.store.ListQuestions(ctx)
}

// Update replaces the question fields and edits its choices in place. The
// incoming set must name every existing choice by id; choices are never
// created or removed here.
func (s *QuestionService) Update(ctx context.Context, id int64, in QuestionInput) (domain.Question, error) {
	var updated domain.Question
	err := s.store.Atomically(ctx, func(tx QuestionStore) error {
		current, err := tx.GetQuestion(ctx, id)
		if err != nil {
			return err
		}
		if err := s.validator.Question(in, s.now()); err != nil {
			return err
		}
		choices, err := reconcileChoices(current.Choices, in.Choices)
		if err != nil {
			return err
		}

		current.Stem = in.Stem
		current.Year = in.Year
		current.EducationLevel = in.EducationLevel
		if err := tx.UpdateQuestion(ctx, current); err != nil {
			return err
		}
		for _, c := range choices {
			if err := tx.UpdateChoice(ctx, c); err != nil {
				return err
			}
		}

		updated, err = tx.GetQuestion(ctx, id)
		return err
	})
	if err != nil {
		return domain.Question{}, err
	}

	s.log.WithField("question_id", id).Info("question updated")
	return updated, nil
}

// Delete removes a question and its choices. Questions with answers are protected.
func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	s.log.WithField("question_id", id).Info("question deleted")
	return nil
}

// reconcileChoices matches incoming choices to existing ones by id and
// returns the existing choices with the incoming fields applied.
func reconcileChoices(existing []domain.Choice, incoming []ChoiceInput) ([]domain.Choice, error) {
	byID := make(map[int64]domain.Choice, len(existing))
	for _, c := range existing {
		byID[c.ID] = c
	}
	incomingIDs := make(map[int64]int, len(incoming))
	for _, ci := range incoming {
		incomingIDs[ci.ID]++
	}

	var missing []int64
	for id := range byID {
		if _, ok := incomingIDs[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sortIDs(missing)
		cause := &domain.MissingChoiceIdsError{IDs: missing}
		return nil, domain.NewValidationError(cause, domain.FieldChoices, cause.Error())
	}

	var unknown, repeated []int64
	for id, n := range incomingIDs {
		if _, ok := byID[id]; !ok {
			unknown = append(unknown, id)
		} else if n > 1 {
			repeated = append(repeated, id)
		}
	}
	verr := &domain.ValidationError{}
	if len(unknown) > 0 {
		sortIDs(unknown)
		verr.Add(domain.ErrUnknownChoiceIds, domain.FieldChoices,
			"Choices id "+domain.FormatIDs(unknown)+" do not belong to this question.")
	}
	if len(repeated) > 0 {
		sortIDs(repeated)
		verr.Add(domain.ErrRepeatedChoiceIds, domain.FieldChoices,
			"Choices id "+domain.FormatIDs(repeated)+" are repeated.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	out := make([]domain.Choice, 0, len(incoming))
	for _, ci := range incoming {
		c := byID[ci.ID]
		c.Text = ci.Text
		c.IsCorrect = ci.IsCorrect
		c.DisplayOrder = ci.DisplayOrder
		out = append(out, c)
	}
	return out, nil
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
