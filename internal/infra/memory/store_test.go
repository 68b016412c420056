package memory

import (
	"context"
	"errors"
	"testing"

	"quizbank-service/internal/app"
	"quizbank-service/internal/domain"
)

func TestAtomicallyRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	err := store.Atomically(ctx, func(tx app.QuestionStore) error {
		q := domain.Question{Stem: "partial", EducationLevel: domain.EducationMedium}
		if err := tx.CreateQuestion(ctx, &q); err != nil {
			return err
		}
		if err := tx.CreateChoice(ctx, &domain.Choice{QuestionID: q.ID, Text: "a", DisplayOrder: 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	questions, err := store.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected no questions after rollback, got %d", len(questions))
	}
	if _, err := store.GetChoice(ctx, 1); !errors.Is(err, domain.ErrChoiceNotFound) {
		t.Fatalf("expected choice rolled back, got %v", err)
	}
}

func TestGetQuestionOrdersChoicesByDisplayOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	q := domain.Question{Stem: "order", EducationLevel: domain.EducationFundamental}
	if err := store.CreateQuestion(ctx, &q); err != nil {
		t.Fatalf("create question: %v", err)
	}
	for _, order := range []domain.DisplayOrder{3, 1, 2} {
		if err := store.CreateChoice(ctx, &domain.Choice{QuestionID: q.ID, Text: order.Letter(), DisplayOrder: order}); err != nil {
			t.Fatalf("create choice: %v", err)
		}
	}

	got, err := store.GetQuestion(ctx, q.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for i, c := range got.Choices {
		if c.DisplayOrder != domain.DisplayOrder(i+1) {
			t.Fatalf("choice %d has order %d", i, c.DisplayOrder)
		}
	}
}

func TestDeleteQuestionIsProtectedByAnswers(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	q := domain.Question{Stem: "protected", EducationLevel: domain.EducationSuperior}
	_ = store.CreateQuestion(ctx, &q)
	c := domain.Choice{QuestionID: q.ID, Text: "x", IsCorrect: true, DisplayOrder: 1}
	_ = store.CreateChoice(ctx, &c)
	if err := store.CreateAnswer(ctx, &domain.UserAnswer{QuestionID: q.ID, ChoiceID: c.ID, UserID: 1}); err != nil {
		t.Fatalf("create answer: %v", err)
	}

	if err := store.DeleteQuestion(ctx, q.ID); !errors.Is(err, domain.ErrProtected) {
		t.Fatalf("expected protected, got %v", err)
	}
	if _, err := store.GetChoice(ctx, c.ID); err != nil {
		t.Fatalf("expected choice kept, got %v", err)
	}
}

func TestDeleteQuestionCascadesChoices(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	q := domain.Question{Stem: "cascade", EducationLevel: domain.EducationSuperior}
	_ = store.CreateQuestion(ctx, &q)
	c := domain.Choice{QuestionID: q.ID, Text: "x", DisplayOrder: 1}
	_ = store.CreateChoice(ctx, &c)

	if err := store.DeleteQuestion(ctx, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetChoice(ctx, c.ID); !errors.Is(err, domain.ErrChoiceNotFound) {
		t.Fatalf("expected choice removed, got %v", err)
	}
	if err := store.DeleteQuestion(ctx, q.ID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestCreateAnswerIsUniquePerUserAndQuestion(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	first := domain.UserAnswer{QuestionID: 1, ChoiceID: 1, UserID: 9}
	if err := store.CreateAnswer(ctx, &first); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	second := domain.UserAnswer{QuestionID: 1, ChoiceID: 2, UserID: 9}
	if err := store.CreateAnswer(ctx, &second); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}
	if n := store.CountAnswers(9, 1); n != 1 {
		t.Fatalf("expected one answer row, got %d", n)
	}
}

func TestUserEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	a := domain.User{Name: "a", Email: "a@example.com", IsActive: true}
	if err := store.CreateUser(ctx, &a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	dup := domain.User{Name: "b", Email: "a@example.com"}
	if err := store.CreateUser(ctx, &dup); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}

	b := domain.User{Name: "b", Email: "b@example.com"}
	_ = store.CreateUser(ctx, &b)
	b.Email = "a@example.com"
	if err := store.UpdateUser(ctx, b); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email taken on update, got %v", err)
	}

	got, err := store.GetUserByEmail(ctx, "a@example.com")
	if err != nil || got.ID != a.ID {
		t.Fatalf("expected lookup by email, got %+v err=%v", got, err)
	}
}
