package http

import (
	"time"

	"quizbank-service/internal/domain"
)

type choiceView struct {
	ID           int64  `json:"id"`
	Text         string `json:"text"`
	IsCorrect    *bool  `json:"is_correct,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

type questionView struct {
	ID             int64        `json:"id"`
	Stem           string       `json:"stem"`
	Year           *int         `json:"year"`
	EducationLevel string       `json:"education_level"`
	Choices        []choiceView `json:"choices"`
}

// presentQuestion builds the outgoing representation of q. The is_correct
// key is only emitted for privileged readers.
func presentQuestion(q domain.Question, privileged bool) questionView {
	view := questionView{
		ID:             q.ID,
		Stem:           q.Stem,
		Year:           q.Year,
		EducationLevel: string(q.EducationLevel),
		Choices:        make([]choiceView, 0, len(q.Choices)),
	}
	for _, c := range q.Choices {
		cv := choiceView{
			ID:           c.ID,
			Text:         c.Text,
			DisplayOrder: int(c.DisplayOrder),
		}
		if privileged {
			correct := c.IsCorrect
			cv.IsCorrect = &correct
		}
		view.Choices = append(view.Choices, cv)
	}
	return view
}

func presentQuestions(qs []domain.Question, privileged bool) []questionView {
	out := make([]questionView, 0, len(qs))
	for _, q := range qs {
		out = append(out, presentQuestion(q, privileged))
	}
	return out
}

type answerView struct {
	ID         int64     `json:"id"`
	Question   int64     `json:"question"`
	Choice     int64     `json:"choice"`
	IsCorrect  bool      `json:"is_correct"`
	AnsweredAt time.Time `json:"answered_at"`
}

func presentAnswer(a domain.UserAnswer) answerView {
	return answerView{
		ID:         a.ID,
		Question:   a.QuestionID,
		Choice:     a.ChoiceID,
		IsCorrect:  a.IsCorrect,
		AnsweredAt: a.AnsweredAt,
	}
}

type userView struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	DateJoined time.Time `json:"date_joined"`
}

func presentUser(u domain.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, DateJoined: u.DateJoined}
}
