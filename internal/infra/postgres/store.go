package postgres

import (
	"context"
	"errors"
	"fmt"

	"quizbank-service/internal/app"
	"quizbank-service/internal/domain"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"

	constraintAnswerPerUser = "user_answers_user_question_key"
	constraintUserEmail     = "users_email_key"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store implements app.QuestionStore and app.UserStore on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	db   querier
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// Atomically runs fn in a transaction. Inside a transaction it runs fn directly.
func (s *Store) Atomically(ctx context.Context, fn func(app.QuestionStore) error) error {
	if s.pool == nil {
		return fn(s)
	}
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) CreateQuestion(ctx context.Context, q *domain.Question) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO questions (stem, year, education_level) VALUES ($1, $2, $3) RETURNING id`,
		q.Stem, q.Year, string(q.EducationLevel),
	).Scan(&q.ID)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *Store) CreateChoice(ctx context.Context, c *domain.Choice) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO choices (question_id, text, is_correct, display_order) VALUES ($1, $2, $3, $4) RETURNING id`,
		c.QuestionID, c.Text, c.IsCorrect, int(c.DisplayOrder),
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert choice: %w", err)
	}
	return nil
}

const questionColumns = `id, stem, COALESCE(year, 0), education_level`

func (s *Store) GetQuestion(ctx context.Context, id int64) (domain.Question, error) {
	q, err := scanQuestion(s.db.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("select question: %w", err)
	}
	q.Choices, err = s.queryChoices(ctx, `WHERE question_id = $1`, id)
	if err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

func (s *Store) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.db.Query(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	index := make(map[int64]int)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}

	choices, err := s.queryChoices(ctx, ``)
	if err != nil {
		return nil, err
	}
	for _, c := range choices {
		if i, ok := index[c.QuestionID]; ok {
			questions[i].Choices = append(questions[i].Choices, c)
		}
	}
	return questions, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, q domain.Question) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE questions SET stem = $2, year = $3, education_level = $4 WHERE id = $1`,
		q.ID, q.Stem, q.Year, string(q.EducationLevel),
	)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *Store) UpdateChoice(ctx context.Context, c domain.Choice) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE choices SET text = $2, is_correct = $3, display_order = $4 WHERE id = $1`,
		c.ID, c.Text, c.IsCorrect, int(c.DisplayOrder),
	)
	if err != nil {
		return fmt.Errorf("update choice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChoiceNotFound
	}
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if isViolation(err, codeForeignKeyViolation, "") {
		return domain.ErrProtected
	}
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

const choiceColumns = `id, question_id, text, is_correct, display_order`

func (s *Store) GetChoice(ctx context.Context, id int64) (domain.Choice, error) {
	c, err := scanChoice(s.db.QueryRow(ctx, `SELECT `+choiceColumns+` FROM choices WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Choice{}, domain.ErrChoiceNotFound
	}
	if err != nil {
		return domain.Choice{}, fmt.Errorf("select choice: %w", err)
	}
	return c, nil
}

func (s *Store) CorrectChoice(ctx context.Context, questionID int64) (domain.Choice, error) {
	c, err := scanChoice(s.db.QueryRow(ctx,
		`SELECT `+choiceColumns+` FROM choices WHERE question_id = $1 AND is_correct`, questionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Choice{}, domain.ErrChoiceNotFound
	}
	if err != nil {
		return domain.Choice{}, fmt.Errorf("select correct choice: %w", err)
	}
	return c, nil
}

func (s *Store) FindAnswer(ctx context.Context, userID, questionID int64) (domain.UserAnswer, error) {
	var a domain.UserAnswer
	err := s.db.QueryRow(ctx,
		`SELECT id, question_id, choice_id, user_id, answered_at, is_correct
		   FROM user_answers WHERE user_id = $1 AND question_id = $2`,
		userID, questionID,
	).Scan(&a.ID, &a.QuestionID, &a.ChoiceID, &a.UserID, &a.AnsweredAt, &a.IsCorrect)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserAnswer{}, domain.ErrAnswerNotFound
	}
	if err != nil {
		return domain.UserAnswer{}, fmt.Errorf("select answer: %w", err)
	}
	return a, nil
}

func (s *Store) CreateAnswer(ctx context.Context, a *domain.UserAnswer) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO user_answers (question_id, choice_id, user_id, answered_at, is_correct)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		a.QuestionID, a.ChoiceID, a.UserID, a.AnsweredAt, a.IsCorrect,
	).Scan(&a.ID)
	if isViolation(err, codeUniqueViolation, constraintAnswerPerUser) {
		return domain.ErrAlreadyAnswered
	}
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

const userColumns = `id, name, email, password_hash, is_active, is_admin, date_joined`

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, is_active, is_admin, date_joined)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		u.Name, u.Email, u.PasswordHash, u.IsActive, u.IsAdmin, u.DateJoined,
	).Scan(&u.ID)
	if isViolation(err, codeUniqueViolation, constraintUserEmail) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return s.getUser(ctx, `id = $1`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.getUser(ctx, `email = $1`, email)
}

func (s *Store) getUser(ctx context.Context, where string, arg interface{}) (domain.User, error) {
	var u domain.User
	err := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsAdmin, &u.DateJoined)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u domain.User) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET name = $2, email = $3, password_hash = $4, is_active = $5, is_admin = $6 WHERE id = $1`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.IsActive, u.IsAdmin,
	)
	if isViolation(err, codeUniqueViolation, constraintUserEmail) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) queryChoices(ctx context.Context, where string, args ...interface{}) ([]domain.Choice, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+choiceColumns+` FROM choices `+where+` ORDER BY question_id, display_order, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("select choices: %w", err)
	}
	defer rows.Close()

	var choices []domain.Choice
	for rows.Next() {
		c, err := scanChoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan choice: %w", err)
		}
		choices = append(choices, c)
	}
	return choices, rows.Err()
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q     domain.Question
		year  int
		level string
	)
	if err := row.Scan(&q.ID, &q.Stem, &year, &level); err != nil {
		return domain.Question{}, err
	}
	if year != 0 {
		q.Year = &year
	}
	q.EducationLevel = domain.EducationLevel(level)
	return q, nil
}

func scanChoice(row pgx.Row) (domain.Choice, error) {
	var (
		c     domain.Choice
		order int
	)
	if err := row.Scan(&c.ID, &c.QuestionID, &c.Text, &c.IsCorrect, &order); err != nil {
		return domain.Choice{}, err
	}
	c.DisplayOrder = domain.DisplayOrder(order)
	return c, nil
}

// isViolation matches a Postgres integrity error by code and, when given, constraint name.
func isViolation(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
