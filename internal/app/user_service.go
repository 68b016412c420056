package app

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"quizbank-service/internal/auth"
	"quizbank-service/internal/domain"

	"github.com/sirupsen/logrus"
)

// UserStore persists accounts. GetUser returns inactive users too; callers filter.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id int64) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateUser(ctx context.Context, u domain.User) error
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// UserPatch carries profile changes. Nil fields are left untouched.
type UserPatch struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Password *string `json:"password"`
}

const (
	minPasswordLength = 8
	maxPasswordBytes  = 72
	msgEmailTaken     = "user with this email already exists."
)

// UserService manages account registration, profiles and soft deletion.
type UserService struct {
	store     UserStore
	validator *InputValidator
	now       func() time.Time
	log       logrus.FieldLogger
}

func NewUserService(store UserStore, log logrus.FieldLogger) *UserService {
	return &UserService{store: store, validator: NewInputValidator(), now: time.Now, log: log}
}

// Register creates an active, non-admin account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	return s.create(ctx, in, false)
}

// CreateAdmin creates an active admin account.
func (s *UserService) CreateAdmin(ctx context.Context, in RegisterInput) (domain.User, error) {
	return s.create(ctx, in, true)
}

func (s *UserService) create(ctx context.Context, in RegisterInput, isAdmin bool) (domain.User, error) {
	verr := s.validator.Fields(in)
	if _, bad := verr.Fields["password"]; !bad {
		verr.Merge(validatePassword(in.Password))
	}
	if err := verr.OrNil(); err != nil {
		return domain.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		IsActive:     true,
		IsAdmin:      isAdmin,
		DateJoined:   s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		return domain.User{}, emailTaken(err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "admin": isAdmin}).Info("user created")
	return user, nil
}

// Get returns an active user.
func (s *UserService) Get(ctx context.Context, id int64) (domain.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if !user.IsActive {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// Update applies patch to an active user. When partial is false name and
// email must both be present, matching a full replacement.
func (s *UserService) Update(ctx context.Context, id int64, patch UserPatch, partial bool) (domain.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	verr := s.validator.Fields(patch)
	if !partial {
		if patch.Name == nil {
			verr.Add(domain.ErrInvalidField, "name", "This field is required.")
		}
		if patch.Email == nil {
			verr.Add(domain.ErrInvalidField, domain.FieldEmail, "This field is required.")
		}
	}
	if patch.Password != nil {
		verr.Merge(validatePassword(*patch.Password))
	}
	if err := verr.OrNil(); err != nil {
		return domain.User{}, err
	}

	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		user.Email = NormalizeEmail(*patch.Email)
	}
	if patch.Password != nil {
		if user.PasswordHash, err = auth.HashPassword(*patch.Password); err != nil {
			return domain.User{}, err
		}
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return domain.User{}, emailTaken(err)
	}
	return user, nil
}

// Deactivate soft-deletes a user; the row and its answers are kept.
func (s *UserService) Deactivate(ctx context.Context, id int64) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	user.IsActive = false
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("user deactivated")
	return nil
}

// Authenticate checks credentials against an active account.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return domain.User{}, err
	}
	if !ok || !user.IsActive {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

// NormalizeEmail trims the address and lower-cases its domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

func validatePassword(password string) *domain.ValidationError {
	verr := &domain.ValidationError{}
	if len([]rune(password)) < minPasswordLength {
		verr.Add(domain.ErrWeakPassword, "password",
			"This password is too short. It must contain at least 8 characters.")
	}
	// bcrypt only accepts up to 72 bytes.
	if len(password) > maxPasswordBytes {
		verr.Add(domain.ErrWeakPassword, "password", "Ensure this field has no more than 72 bytes.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		verr.Add(domain.ErrWeakPassword, "password", "This password is entirely numeric.")
	}
	return verr
}

func emailTaken(err error) error {
	if errors.Is(err, domain.ErrEmailTaken) {
		return domain.NewValidationError(domain.ErrEmailTaken, domain.FieldEmail, msgEmailTaken)
	}
	return err
}
