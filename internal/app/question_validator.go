package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"quizbank-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

// QuestionInput is the candidate aggregate submitted on create and update.
type QuestionInput struct {
	Stem           string                `json:"stem" validate:"required,max=2000"`
	Year           *int                  `json:"year" validate:"omitempty,min=1900"`
	EducationLevel domain.EducationLevel `json:"education_level" validate:"required,oneof=EF EM ES"`
	Choices        []ChoiceInput         `json:"choices" validate:"required,dive"`
}

// ChoiceInput is one candidate choice. ID is only meaningful on update.
type ChoiceInput struct {
	ID           int64               `json:"id"`
	Text         string              `json:"text" validate:"required,max=500"`
	IsCorrect    bool                `json:"is_correct"`
	DisplayOrder domain.DisplayOrder `json:"display_order" validate:"required,min=1,max=5"`
}

const (
	msgChoiceCount    = "A question should have 4 or 5 choices."
	msgCorrectCount   = "A question should have exactly one correct choice."
	msgDuplicateOrder = "Choices display order should be unique."
	msgFutureYear     = "Question year can not be in the future."
)

// choiceCheck is one rule over the whole choice set.
type choiceCheck struct {
	cause   error
	message string
	ok      func([]ChoiceInput) bool
}

var choiceChecks = []choiceCheck{
	{domain.ErrInvalidChoiceCount, msgChoiceCount, hasValidChoiceCount},
	{domain.ErrInvalidCorrectCount, msgCorrectCount, hasOneCorrectChoice},
	{domain.ErrDuplicateDisplayOrder, msgDuplicateOrder, hasUniqueDisplayOrder},
}

func hasValidChoiceCount(choices []ChoiceInput) bool {
	return len(choices) == domain.MinChoices || len(choices) == domain.MaxChoices
}

func hasOneCorrectChoice(choices []ChoiceInput) bool {
	correct := 0
	for _, c := range choices {
		if c.IsCorrect {
			correct++
		}
	}
	return correct == 1
}

func hasUniqueDisplayOrder(choices []ChoiceInput) bool {
	seen := make(map[domain.DisplayOrder]struct{}, len(choices))
	for _, c := range choices {
		if _, ok := seen[c.DisplayOrder]; ok {
			return false
		}
		seen[c.DisplayOrder] = struct{}{}
	}
	return true
}

// ValidateChoices runs every choice-set rule and reports all failures under "choices".
func ValidateChoices(choices []ChoiceInput) *domain.ValidationError {
	verr := &domain.ValidationError{}
	for _, check := range choiceChecks {
		if !check.ok(choices) {
			verr.Add(check.cause, domain.FieldChoices, check.message)
		}
	}
	return verr
}

// ValidateYear rejects years after the current calendar year.
func ValidateYear(year *int, now time.Time) *domain.ValidationError {
	verr := &domain.ValidationError{}
	if year != nil && *year > now.Year() {
		verr.Add(domain.ErrFutureYear, domain.FieldYear, msgFutureYear)
	}
	return verr
}

// InputValidator runs struct-tag field checks followed by the aggregate rules.
type InputValidator struct {
	validate *validator.Validate
}

func NewInputValidator() *InputValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &InputValidator{validate: v}
}

// Question validates a candidate question as of now.
func (iv *InputValidator) Question(in QuestionInput, now time.Time) error {
	verr := iv.Fields(in)
	if _, bad := verr.Fields[domain.FieldChoices]; !bad {
		verr.Merge(ValidateChoices(in.Choices))
	}
	if _, bad := verr.Fields[domain.FieldYear]; !bad {
		verr.Merge(ValidateYear(in.Year, now))
	}
	return verr.OrNil()
}

// Fields runs the struct-tag checks only. Messages are keyed by the top-level
// JSON field; nested failures keep their path in the message.
func (iv *InputValidator) Fields(in any) *domain.ValidationError {
	verr := &domain.ValidationError{}
	err := iv.validate.Struct(in)
	if err == nil {
		return verr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add(domain.ErrInvalidField, domain.FieldError, err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		key, rest := splitNamespace(fe.Namespace())
		msg := fieldMessage(fe)
		if rest != "" {
			msg = rest + ": " + msg
		}
		verr.Add(domain.ErrInvalidField, key, msg)
	}
	return verr
}

// splitNamespace turns "QuestionInput.choices[1].text" into ("choices", "choices[1].text").
func splitNamespace(ns string) (string, string) {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	top := parts[0]
	if i := strings.IndexByte(top, '['); i >= 0 {
		top = top[:i]
	}
	if len(parts) == 1 && top == parts[0] {
		return top, ""
	}
	return top, strings.Join(parts, ".")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}
