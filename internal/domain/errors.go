package domain

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrQuestionNotFound is returned when a question id does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrChoiceNotFound is returned by stores when a choice id does not exist.
	ErrChoiceNotFound = errors.New("choice not found")
	// ErrUserNotFound is returned when a user does not exist or is inactive.
	ErrUserNotFound = errors.New("user not found")
	// ErrAnswerNotFound is returned by stores when no answer exists for a user/question pair.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrProtected is returned when deleting a record that answers still reference.
	ErrProtected = errors.New("record is referenced by answers")

	// ErrUnauthenticated means the caller presented no valid credential.
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	// ErrForbidden means the caller is known but not allowed to perform the operation.
	ErrForbidden = errors.New("permission denied")
	// ErrInvalidCredentials is returned when an email/password pair does not match an active account.
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
)

// Validation causes. Each one is matched with errors.Is against a *ValidationError.
var (
	ErrInvalidField          = errors.New("invalid field")
	ErrInvalidChoiceCount    = errors.New("invalid choice count")
	ErrInvalidCorrectCount   = errors.New("invalid correct choice count")
	ErrDuplicateDisplayOrder = errors.New("duplicate display order")
	ErrFutureYear            = errors.New("year is in the future")
	ErrMissingChoiceIds      = errors.New("missing choice ids")
	ErrUnknownChoiceIds      = errors.New("unknown choice ids")
	ErrRepeatedChoiceIds     = errors.New("repeated choice ids")
	ErrInvalidChoice         = errors.New("invalid choice")
	ErrChoiceMismatch        = errors.New("choice does not belong to question")
	ErrAlreadyAnswered       = errors.New("question already answered")
	ErrEmailTaken            = errors.New("email already registered")
	ErrWeakPassword          = errors.New("weak password")
)

// Keys used to group validation messages.
const (
	FieldChoices = "choices"
	FieldYear    = "year"
	FieldChoice  = "choice"
	FieldEmail   = "email"
	FieldError   = "error"
)

// ValidationError groups user-facing messages by field or logical key.
type ValidationError struct {
	Fields map[string][]string
	causes []error
}

// NewValidationError returns an error with a single message.
func NewValidationError(cause error, field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(cause, field, message)
	return v
}

// Add appends a message under field and records its cause.
func (v *ValidationError) Add(cause error, field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], message)
	if cause != nil {
		v.causes = append(v.causes, cause)
	}
}

// Merge folds other into v.
func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msgs := range other.Fields {
		if v.Fields == nil {
			v.Fields = make(map[string][]string)
		}
		v.Fields[field] = append(v.Fields[field], msgs...)
	}
	v.causes = append(v.causes, other.causes...)
}

// Empty reports whether nothing was added.
func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// OrNil returns v as an error, or nil when empty.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Unwrap() []error {
	return v.causes
}

// MissingChoiceIdsError reports existing choice ids absent from an update.
type MissingChoiceIdsError struct {
	IDs []int64
}

func (e *MissingChoiceIdsError) Error() string {
	return "Choices id " + FormatIDs(e.IDs) + " not present in new question data."
}

func (e *MissingChoiceIdsError) Is(target error) bool {
	return target == ErrMissingChoiceIds
}

// FormatIDs renders ids as "[1, 2, 3]".
func FormatIDs(ids []int64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteByte(']')
	return b.String()
}
