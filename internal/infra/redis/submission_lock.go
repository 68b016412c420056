package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SubmissionLock is a Redis implementation of app.SubmissionLock. A pair is
// held by a SET NX key that expires after ttl, so a crashed holder cannot
// block the pair forever.
type SubmissionLock struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewSubmissionLock(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *SubmissionLock {
	return &SubmissionLock{client: client, ttl: ttl, log: log}
}

func (l *SubmissionLock) Acquire(ctx context.Context, userID, questionID int64) (bool, error) {
	return l.client.SetNX(ctx, l.key(userID, questionID), "1", l.ttl).Result()
}

func (l *SubmissionLock) Release(ctx context.Context, userID, questionID int64) {
	// best-effort; the key expires on its own
	if err := l.client.Del(context.WithoutCancel(ctx), l.key(userID, questionID)).Err(); err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{
			"user_id":     userID,
			"question_id": questionID,
		}).Warn("release submission lock")
	}
}

func (l *SubmissionLock) key(userID, questionID int64) string {
	return "quizbank:answer-lock:" + strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(questionID, 10)
}
