package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"quizbank-service/internal/app"
	"quizbank-service/internal/domain"
)

func TestSubmitGradesAgainstCorrectChoice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	q := f.createSample(t)

	right, err := f.answers.Submit(ctx, q.ID, choiceWithText(t, q, "4").ID, 1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !right.IsCorrect {
		t.Fatalf("expected correct answer, got %+v", right)
	}
	if !right.AnsweredAt.Equal(fixedNow) || right.ID == 0 {
		t.Fatalf("unexpected stored answer %+v", right)
	}

	wrong, err := f.answers.Submit(ctx, q.ID, choiceWithText(t, q, "5").ID, 2)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if wrong.IsCorrect {
		t.Fatalf("expected wrong answer, got %+v", wrong)
	}
}

func TestSubmitTwiceIsRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	q := f.createSample(t)

	if _, err := f.answers.Submit(ctx, q.ID, q.Choices[0].ID, 1); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := f.answers.Submit(ctx, q.ID, q.Choices[1].ID, 1)
	if !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}
	if msgs := fieldMessages(t, err, domain.FieldError); msgs[0] != "You have already answered this question." {
		t.Fatalf("unexpected messages %v", msgs)
	}
	stored, err := f.store.FindAnswer(ctx, 1, q.ID)
	if err != nil || stored.ChoiceID != q.Choices[0].ID {
		t.Fatalf("first answer must be kept, got %+v %v", stored, err)
	}
	if ok, _ := f.lock.Acquire(ctx, 1, q.ID); !ok {
		t.Fatalf("submission lock must be released")
	}
}

func TestSubmitConcurrentDuplicatesStoreOneAnswer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	q := f.createSample(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.answers.Submit(ctx, q.ID, q.Choices[2].ID, 3)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, domain.ErrAlreadyAnswered):
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected a single accepted submission, got %d", ok)
	}
	if _, err := f.store.FindAnswer(ctx, 3, q.ID); err != nil {
		t.Fatalf("expected the accepted answer to be stored, got %v", err)
	}
}

func TestSubmitChoiceFromAnotherQuestion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	q := f.createSample(t)
	other := f.createSample(t)

	_, err := f.answers.Submit(ctx, q.ID, other.Choices[0].ID, 1)
	if !errors.Is(err, domain.ErrChoiceMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if msgs := fieldMessages(t, err, domain.FieldError); msgs[0] != "Choice does not belong to this question." {
		t.Fatalf("unexpected messages %v", msgs)
	}
	if _, err := f.store.FindAnswer(ctx, 1, q.ID); !errors.Is(err, domain.ErrAnswerNotFound) {
		t.Fatalf("no answer should be stored, got %v", err)
	}
}

func TestSubmitUnknownChoice(t *testing.T) {
	f := newFixture()
	q := f.createSample(t)

	_, err := f.answers.Submit(context.Background(), q.ID, 999, 1)
	if !errors.Is(err, domain.ErrInvalidChoice) {
		t.Fatalf("expected invalid choice, got %v", err)
	}
	if msgs := fieldMessages(t, err, domain.FieldChoice); msgs[0] != `Invalid pk "999" - object does not exist.` {
		t.Fatalf("unexpected messages %v", msgs)
	}
}

func TestSubmitUnknownQuestion(t *testing.T) {
	f := newFixture()
	_, err := f.answers.Submit(context.Background(), 42, 1, 1)
	if !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}

type busyLock struct{}

func (busyLock) Acquire(context.Context, int64, int64) (bool, error) { return false, nil }
func (busyLock) Release(context.Context, int64, int64) {}

type brokenLock struct{ err error }

func (l brokenLock) Acquire(context.Context, int64, int64) (bool, error) { return false, l.err }
func (brokenLock) Release(context.Context, int64, int64) {}

func TestSubmitWhileLockedReportsAlreadyAnswered(t *testing.T) {
	f := newFixture()
	q := f.createSample(t)
	service := app.NewAnswerServiceWithClock(f.store, busyLock{}, quietLogger(), clock)

	_, err := service.Submit(context.Background(), q.ID, q.Choices[0].ID, 1)
	if !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}
}

func TestSubmitLockFailureIsNotAValidationError(t *testing.T) {
	f := newFixture()
	q := f.createSample(t)
	down := errors.New("redis down")
	service := app.NewAnswerServiceWithClock(f.store, brokenLock{err: down}, quietLogger(), clock)

	_, err := service.Submit(context.Background(), q.ID, q.Choices[0].ID, 1)
	if !errors.Is(err, down) {
		t.Fatalf("expected lock error, got %v", err)
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		t.Fatalf("lock failure must not surface as a validation error")
	}
}

func TestAnswerKeepsGradeAfterCorrectChoiceChanges(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	q := f.createSample(t)

	answer, err := f.answers.Submit(ctx, q.ID, choiceWithText(t, q, "4").ID, 1)
	if err != nil || !answer.IsCorrect {
		t.Fatalf("submit: %+v %v", answer, err)
	}

	in := inputFrom(q)
	in.Choices[2].IsCorrect = false
	in.Choices[0].IsCorrect = true
	if _, err := f.questions.Update(ctx, q.ID, in); err != nil {
		t.Fatalf("update: %v", err)
	}

	stored, err := f.store.FindAnswer(ctx, 1, q.ID)
	if err != nil {
		t.Fatalf("find answer: %v", err)
	}
	if !stored.IsCorrect {
		t.Fatalf("stored grade must not change")
	}

	later, err := f.answers.Submit(ctx, q.ID, choiceWithText(t, q, "4").ID, 2)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if later.IsCorrect {
		t.Fatalf("new answers are graded against the current correct choice")
	}
}
