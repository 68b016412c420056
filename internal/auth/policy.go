package auth

import "quizbank-service/internal/domain"

// Operation names an action guarded by the access policy.
type Operation int

const (
	OpCreateQuestion Operation = iota + 1
	OpUpdateQuestion
	OpDeleteQuestion
	OpReadQuestion
	OpListQuestions
	OpSubmitAnswer
	OpRegisterUser
	OpIssueToken
	OpReadUser
	OpUpdateUser
	OpDeactivateUser
)

type requirement int

const (
	anyone requirement = iota
	authenticated
	admin
	ownerOrAdmin
)

var policy = map[Operation]requirement{
	OpCreateQuestion: admin,
	OpUpdateQuestion: admin,
	OpDeleteQuestion: admin,
	OpReadQuestion:   authenticated,
	OpListQuestions:  authenticated,
	OpSubmitAnswer:   authenticated,
	OpRegisterUser:   anyone,
	OpIssueToken:     anyone,
	OpReadUser:       ownerOrAdmin,
	OpUpdateUser:     ownerOrAdmin,
	OpDeactivateUser: ownerOrAdmin,
}

// Caller is the resolved identity of a request. The zero value is anonymous.
type Caller struct {
	UserID   int64
	IsAdmin  bool
	IsActive bool
}

// Authenticated reports whether the caller carries a live identity.
func (c *Caller) Authenticated() bool {
	return c != nil && c.UserID != 0 && c.IsActive
}

// Privileged reports whether the caller may see staff-only data.
func (c *Caller) Privileged() bool {
	return c.Authenticated() && c.IsAdmin
}

// Authorize decides whether caller may perform op. ownerID is the user that
// owns the target resource and is only consulted for owner-scoped operations.
// Unknown operations are denied.
func Authorize(op Operation, caller *Caller, ownerID int64) error {
	req, ok := policy[op]
	if !ok {
		return domain.ErrForbidden
	}
	if req == anyone {
		return nil
	}
	if !caller.Authenticated() {
		return domain.ErrUnauthenticated
	}
	switch req {
	case admin:
		if !caller.IsAdmin {
			return domain.ErrForbidden
		}
	case ownerOrAdmin:
		if !caller.IsAdmin && caller.UserID != ownerID {
			return domain.ErrForbidden
		}
	}
	return nil
}
