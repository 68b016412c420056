package memory

import (
	"context"
	"sync"
)

type pairKey struct {
	userID     int64
	questionID int64
}

// SubmissionLock is an in-process implementation of app.SubmissionLock.
type SubmissionLock struct {
	mu   sync.Mutex
	held map[pairKey]struct{}
}

func NewSubmissionLock() *SubmissionLock {
	return &SubmissionLock{held: make(map[pairKey]struct{})}
}

func (l *SubmissionLock) Acquire(_ context.Context, userID, questionID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := pairKey{userID: userID, questionID: questionID}
	if _, busy := l.held[key]; busy {
		return false, nil
	}
	l.held[key] = struct{}{}
	return true, nil
}

func (l *SubmissionLock) Release(_ context.Context, userID, questionID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, pairKey{userID: userID, questionID: questionID})
}
