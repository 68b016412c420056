package memory

import (
	"context"
	"sort"
	"sync"

	"quizbank-service/internal/app"
	"quizbank-service/internal/domain"
)

// Store is an in-memory implementation of app.QuestionStore and app.UserStore.
// Atomically holds the store lock for the whole callback and works on a copy
// that replaces the live state only when the callback succeeds.
type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

type state struct {
	lastQuestionID int64
	lastChoiceID   int64
	lastAnswerID   int64
	lastUserID     int64

	questions map[int64]domain.Question
	choices   map[int64]domain.Choice
	answers   map[int64]domain.UserAnswer
	users     map[int64]domain.User
}

func newState() *state {
	return &state{
		questions: make(map[int64]domain.Question),
		choices:   make(map[int64]domain.Choice),
		answers:   make(map[int64]domain.UserAnswer),
		users:     make(map[int64]domain.User),
	}
}

func (st *state) clone() *state {
	c := *st
	c.questions = make(map[int64]domain.Question, len(st.questions))
	for k, v := range st.questions {
		c.questions[k] = v
	}
	c.choices = make(map[int64]domain.Choice, len(st.choices))
	for k, v := range st.choices {
		c.choices[k] = v
	}
	c.answers = make(map[int64]domain.UserAnswer, len(st.answers))
	for k, v := range st.answers {
		c.answers[k] = v
	}
	c.users = make(map[int64]domain.User, len(st.users))
	for k, v := range st.users {
		c.users[k] = v
	}
	return &c
}

func (s *Store) Atomically(ctx context.Context, fn func(app.QuestionStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft := s.st.clone()
	if err := fn(&tx{st: draft}); err != nil {
		return err
	}
	s.st = draft
	return nil
}

func (s *Store) view() *tx {
	return &tx{st: s.st}
}

func (s *Store) CreateQuestion(ctx context.Context, q *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateQuestion(ctx, q)
}

func (s *Store) CreateChoice(ctx context.Context, c *domain.Choice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateChoice(ctx, c)
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetQuestion(ctx, id)
}

func (s *Store) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListQuestions(ctx)
}

func (s *Store) UpdateQuestion(ctx context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateQuestion(ctx, q)
}

func (s *Store) UpdateChoice(ctx context.Context, c domain.Choice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateChoice(ctx, c)
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteQuestion(ctx, id)
}

func (s *Store) GetChoice(ctx context.Context, id int64) (domain.Choice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetChoice(ctx, id)
}

func (s *Store) CorrectChoice(ctx context.Context, questionID int64) (domain.Choice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CorrectChoice(ctx, questionID)
}

func (s *Store) FindAnswer(ctx context.Context, userID, questionID int64) (domain.UserAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().FindAnswer(ctx, userID, questionID)
}

func (s *Store) CreateAnswer(ctx context.Context, a *domain.UserAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateAnswer(ctx, a)
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().createUser(u)
}

func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) UpdateUser(ctx context.Context, u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().updateUser(u)
}

// tx operates on a state without locking; the owning Store holds the lock.
type tx struct {
	st *state
}

func (t *tx) Atomically(ctx context.Context, fn func(app.QuestionStore) error) error {
	return fn(t)
}

func (t *tx) CreateQuestion(_ context.Context, q *domain.Question) error {
	t.st.lastQuestionID++
	q.ID = t.st.lastQuestionID
	stored := *q
	stored.Year = copyYear(q.Year)
	stored.Choices = nil
	t.st.questions[q.ID] = stored
	return nil
}

func (t *tx) CreateChoice(_ context.Context, c *domain.Choice) error {
	if _, ok := t.st.questions[c.QuestionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	t.st.lastChoiceID++
	c.ID = t.st.lastChoiceID
	t.st.choices[c.ID] = *c
	return nil
}

func (t *tx) GetQuestion(_ context.Context, id int64) (domain.Question, error) {
	q, ok := t.st.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return t.assemble(q), nil
}

func (t *tx) ListQuestions(_ context.Context) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(t.st.questions))
	for _, q := range t.st.questions {
		out = append(out, t.assemble(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *tx) assemble(q domain.Question) domain.Question {
	q.Year = copyYear(q.Year)
	q.Choices = nil
	for _, c := range t.st.choices {
		if c.QuestionID == q.ID {
			q.Choices = append(q.Choices, c)
		}
	}
	sort.Slice(q.Choices, func(i, j int) bool {
		if q.Choices[i].DisplayOrder != q.Choices[j].DisplayOrder {
			return q.Choices[i].DisplayOrder < q.Choices[j].DisplayOrder
		}
		return q.Choices[i].ID < q.Choices[j].ID
	})
	return q
}

func (t *tx) UpdateQuestion(_ context.Context, q domain.Question) error {
	if _, ok := t.st.questions[q.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	q.Year = copyYear(q.Year)
	q.Choices = nil
	t.st.questions[q.ID] = q
	return nil
}

func (t *tx) UpdateChoice(_ context.Context, c domain.Choice) error {
	current, ok := t.st.choices[c.ID]
	if !ok {
		return domain.ErrChoiceNotFound
	}
	c.QuestionID = current.QuestionID
	t.st.choices[c.ID] = c
	return nil
}

func (t *tx) DeleteQuestion(_ context.Context, id int64) error {
	if _, ok := t.st.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	for _, a := range t.st.answers {
		if a.QuestionID == id {
			return domain.ErrProtected
		}
	}
	for cid, c := range t.st.choices {
		if c.QuestionID == id {
			delete(t.st.choices, cid)
		}
	}
	delete(t.st.questions, id)
	return nil
}

func (t *tx) GetChoice(_ context.Context, id int64) (domain.Choice, error) {
	c, ok := t.st.choices[id]
	if !ok {
		return domain.Choice{}, domain.ErrChoiceNotFound
	}
	return c, nil
}

func (t *tx) CorrectChoice(_ context.Context, questionID int64) (domain.Choice, error) {
	var found []domain.Choice
	for _, c := range t.st.choices {
		if c.QuestionID == questionID && c.IsCorrect {
			found = append(found, c)
		}
	}
	if len(found) != 1 {
		return domain.Choice{}, domain.ErrChoiceNotFound
	}
	return found[0], nil
}

func (t *tx) FindAnswer(_ context.Context, userID, questionID int64) (domain.UserAnswer, error) {
	for _, a := range t.st.answers {
		if a.UserID == userID && a.QuestionID == questionID {
			return a, nil
		}
	}
	return domain.UserAnswer{}, domain.ErrAnswerNotFound
}

func (t *tx) CreateAnswer(ctx context.Context, a *domain.UserAnswer) error {
	if _, err := t.FindAnswer(ctx, a.UserID, a.QuestionID); err == nil {
		return domain.ErrAlreadyAnswered
	}
	t.st.lastAnswerID++
	a.ID = t.st.lastAnswerID
	t.st.answers[a.ID] = *a
	return nil
}

func (t *tx) createUser(u *domain.User) error {
	if t.emailInUse(u.Email, 0) {
		return domain.ErrEmailTaken
	}
	t.st.lastUserID++
	u.ID = t.st.lastUserID
	t.st.users[u.ID] = *u
	return nil
}

func (t *tx) updateUser(u domain.User) error {
	if _, ok := t.st.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	if t.emailInUse(u.Email, u.ID) {
		return domain.ErrEmailTaken
	}
	t.st.users[u.ID] = u
	return nil
}

func (t *tx) emailInUse(email string, except int64) bool {
	for id, u := range t.st.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func copyYear(y *int) *int {
	if y == nil {
		return nil
	}
	v := *y
	return &v
}
