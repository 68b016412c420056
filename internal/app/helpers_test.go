package app_test

import (
	"context"
	"io"
	"testing"
	"time"

	"quizbank-service/internal/app"
	"quizbank-service/internal/domain"
	"quizbank-service/internal/infra/memory"

	"github.com/sirupsen/logrus"
)

var fixedNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func intPtr(v int) *int { return &v }

// sampleInput is "2 + 2 = ?" with "4" as the correct choice at display order 3.
func sampleInput() app.QuestionInput {
	return app.QuestionInput{
		Stem:           "2 + 2 = ?",
		Year:           intPtr(2025),
		EducationLevel: domain.EducationFundamental,
		Choices: []app.ChoiceInput{
			{Text: "2", DisplayOrder: 1},
			{Text: "3", DisplayOrder: 2},
			{Text: "4", IsCorrect: true, DisplayOrder: 3},
			{Text: "5", DisplayOrder: 4},
			{Text: "6", DisplayOrder: 5},
		},
	}
}

// inputFrom rebuilds an update payload from a stored question.
func inputFrom(q domain.Question) app.QuestionInput {
	in := app.QuestionInput{
		Stem:           q.Stem,
		Year:           q.Year,
		EducationLevel: q.EducationLevel,
	}
	for _, c := range q.Choices {
		in.Choices = append(in.Choices, app.ChoiceInput{
			ID:           c.ID,
			Text:         c.Text,
			IsCorrect:    c.IsCorrect,
			DisplayOrder: c.DisplayOrder,
		})
	}
	return in
}

type fixture struct {
	store     *memory.Store
	lock      *memory.SubmissionLock
	questions *app.QuestionService
	answers   *app.AnswerService
	users     *app.UserService
}

func newFixture() *fixture {
	store := memory.NewStore()
	lock := memory.NewSubmissionLock()
	log := quietLogger()
	return &fixture{
		store:     store,
		lock:      lock,
		questions: app.NewQuestionServiceWithClock(store, log, clock),
		answers:   app.NewAnswerServiceWithClock(store, lock, log, clock),
		users:     app.NewUserService(store, log),
	}
}

func (f *fixture) createSample(t *testing.T) domain.Question {
	t.Helper()
	q, err := f.questions.Create(context.Background(), sampleInput())
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	return q
}

func choiceWithText(t *testing.T, q domain.Question, text string) domain.Choice {
	t.Helper()
	for _, c := range q.Choices {
		if c.Text == text {
			return c
		}
	}
	t.Fatalf("no choice %q in question %d", text, q.ID)
	return domain.Choice{}
}

func correctChoice(t *testing.T, q domain.Question) domain.Choice {
	t.Helper()
	var found []domain.Choice
	for _, c := range q.Choices {
		if c.IsCorrect {
			found = append(found, c)
		}
	}
	if len(found) != 1 {
		t.Fatalf("question %d has %d correct choices", q.ID, len(found))
	}
	return found[0]
}

func fieldMessages(t *testing.T, err error, field string) []string {
	t.Helper()
	verr, ok := err.(*domain.ValidationError)
	if !ok {
		t.Fatalf("expected *domain.ValidationError, got %T (%v)", err, err)
	}
	return verr.Fields[field]
}
