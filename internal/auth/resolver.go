package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"quizbank-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// UserLookup loads accounts by id.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (domain.User, error)
}

// Resolver turns an Authorization header into a Caller.
type Resolver struct {
	tokens *TokenIssuer
	users  UserLookup
	sf     singleflight.Group
}

func NewResolver(tokens *TokenIssuer, users UserLookup) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve returns the anonymous caller when the header is empty. A header that
// is present but does not name an active user yields ErrUnauthenticated.
func (r *Resolver) Resolve(ctx context.Context, header string) (*Caller, error) {
	if header == "" {
		return &Caller{}, nil
	}
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return nil, domain.ErrUnauthenticated
	}
	userID, err := r.tokens.Verify(raw)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	// Concurrent requests from one user share a single lookup.
	// The shared lookup must outlive the request that started it.
	result, err, _ := r.sf.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		return r.users.GetUser(context.WithoutCancel(ctx), userID)
	})
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	user := result.(domain.User)
	if !user.IsActive {
		return nil, domain.ErrUnauthenticated
	}
	return &Caller{UserID: user.ID, IsAdmin: user.IsAdmin, IsActive: user.IsActive}, nil
}
