package domain

import "time"

// EducationLevel classifies the audience of a question.
type EducationLevel string

const (
	EducationFundamental EducationLevel = "EF"
	EducationMedium      EducationLevel = "EM"
	EducationSuperior    EducationLevel = "ES"
)

// Label returns the human readable name of the level.
func (l EducationLevel) Label() string {
	switch l {
	case EducationFundamental:
		return "FUNDAMENTAL"
	case EducationMedium:
		return "MEDIUM"
	case EducationSuperior:
		return "SUPERIOR"
	}
	return ""
}

// DisplayOrder is the position of a choice within its question (1..5, shown as a..e).
type DisplayOrder int

const (
	MinDisplayOrder DisplayOrder = 1
	MaxDisplayOrder DisplayOrder = 5
)

// Letter maps the order to its display letter, or "" when out of range.
func (o DisplayOrder) Letter() string {
	if o < MinDisplayOrder || o > MaxDisplayOrder {
		return ""
	}
	return string(rune('a' + int(o) - 1))
}

const (
	MinChoices = 4
	MaxChoices = 5

	MinQuestionYear = 1900
)

// Question is a multiple-choice item. Choices are ordered by display order.
type Question struct {
	ID             int64
	Stem           string
	Year           *int
	EducationLevel EducationLevel
	Choices        []Choice
}

// Choice is one option of a question.
type Choice struct {
	ID           int64
	QuestionID   int64
	Text         string
	IsCorrect    bool
	DisplayOrder DisplayOrder
}

// UserAnswer records the choice a user picked for a question. IsCorrect is
// computed when the answer is stored and never changes afterwards.
type UserAnswer struct {
	ID         int64
	QuestionID int64
	ChoiceID   int64
	UserID     int64
	AnsweredAt time.Time
	IsCorrect  bool
}

// User is an account. PasswordHash holds a bcrypt hash and is never exposed.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	IsAdmin      bool
	DateJoined   time.Time
}
