package app_test

import (
	"errors"
	"strings"
	"testing"

	"quizbank-service/internal/app"
	"quizbank-service/internal/domain"
)

func choices(correct []bool, orders ...domain.DisplayOrder) []app.ChoiceInput {
	out := make([]app.ChoiceInput, 0, len(orders))
	for i, o := range orders {
		out = append(out, app.ChoiceInput{Text: o.Letter(), IsCorrect: correct[i], DisplayOrder: o})
	}
	return out
}

func TestValidateChoices(t *testing.T) {
	tests := []struct {
		name    string
		choices []app.ChoiceInput
		want    []error
	}{
		{"four choices", choices([]bool{true, false, false, false}, 1, 2, 3, 4), nil},
		{"five choices", choices([]bool{false, false, false, false, true}, 1, 2, 3, 4, 5), nil},
		{"three choices", choices([]bool{true, false, false}, 1, 2, 3), []error{domain.ErrInvalidChoiceCount}},
		{"six choices", choices([]bool{true, false, false, false, false, false}, 1, 2, 3, 4, 5, 5),
			[]error{domain.ErrInvalidChoiceCount, domain.ErrDuplicateDisplayOrder}},
		{"no correct", choices([]bool{false, false, false, false}, 1, 2, 3, 4), []error{domain.ErrInvalidCorrectCount}},
		{"two correct", choices([]bool{true, true, false, false}, 1, 2, 3, 4), []error{domain.ErrInvalidCorrectCount}},
		{"duplicate order", choices([]bool{true, false, false, false}, 1, 2, 2, 4), []error{domain.ErrDuplicateDisplayOrder}},
		{"everything wrong", choices([]bool{false, false}, 1, 1),
			[]error{domain.ErrInvalidChoiceCount, domain.ErrInvalidCorrectCount, domain.ErrDuplicateDisplayOrder}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := app.ValidateChoices(tt.choices)
			if len(tt.want) == 0 {
				if !verr.Empty() {
					t.Fatalf("expected no errors, got %v", verr)
				}
				return
			}
			err := verr.OrNil()
			for _, cause := range tt.want {
				if !errors.Is(err, cause) {
					t.Fatalf("expected %v in %v", cause, err)
				}
			}
			if got := len(verr.Fields[domain.FieldChoices]); got != len(tt.want) {
				t.Fatalf("expected %d messages under choices, got %d: %v", len(tt.want), got, verr.Fields)
			}
		})
	}
}

func TestValidateYear(t *testing.T) {
	if !app.ValidateYear(nil, fixedNow).Empty() {
		t.Fatalf("absent year must be valid")
	}
	if !app.ValidateYear(intPtr(fixedNow.Year()), fixedNow).Empty() {
		t.Fatalf("current year must be valid")
	}
	err := app.ValidateYear(intPtr(fixedNow.Year()+1), fixedNow).OrNil()
	if !errors.Is(err, domain.ErrFutureYear) {
		t.Fatalf("expected future year error, got %v", err)
	}
	if msgs := fieldMessages(t, err, domain.FieldYear); len(msgs) != 1 || msgs[0] != "Question year can not be in the future." {
		t.Fatalf("unexpected messages %v", msgs)
	}
}

func TestInputValidatorFieldRules(t *testing.T) {
	v := app.NewInputValidator()

	in := sampleInput()
	in.Stem = ""
	in.EducationLevel = "XX"
	in.Year = intPtr(1800)
	in.Choices[1].Text = strings.Repeat("x", 501)

	err := v.Question(in, fixedNow)
	if !errors.Is(err, domain.ErrInvalidField) {
		t.Fatalf("expected field error, got %v", err)
	}
	verr := err.(*domain.ValidationError)
	if got := verr.Fields["stem"]; len(got) != 1 || got[0] != "This field is required." {
		t.Fatalf("stem messages: %v", got)
	}
	if got := verr.Fields["education_level"]; len(got) != 1 || got[0] != `"XX" is not a valid choice.` {
		t.Fatalf("education_level messages: %v", got)
	}
	if got := verr.Fields["year"]; len(got) != 1 || !strings.Contains(got[0], "1900") {
		t.Fatalf("year messages: %v", got)
	}
	if got := verr.Fields["choices"]; len(got) != 1 || !strings.HasPrefix(got[0], "choices[1].text: ") {
		t.Fatalf("choices messages: %v", got)
	}
}

func TestInputValidatorAcceptsSample(t *testing.T) {
	if err := app.NewInputValidator().Question(sampleInput(), fixedNow); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestInputValidatorRejectsMissingChoices(t *testing.T) {
	in := sampleInput()
	in.Choices = nil
	err := app.NewInputValidator().Question(in, fixedNow)
	if got := fieldMessages(t, err, domain.FieldChoices); len(got) != 1 || got[0] != "This field is required." {
		t.Fatalf("choices messages: %v", got)
	}
}
