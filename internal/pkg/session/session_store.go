package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tazkarti/tz-booking/pkg/errors"
	"github.com/tazkarti/tz-booking/pkg/status"
)

type SessionStore interface {
	Get(ctx context.Context, sessionID string) (Account, error)
}

type redisSessionStore struct {
	logger *logrus.Logger
	rc     redis.UniversalClient
}

func NewRedisSessionStore(logger *logrus.Logger, rc redis.UniversalClient) SessionStore {
	return &redisSessionStore{
		logger: logger,
		rc:     rc,
	}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Get implements SessionStore.
func (s *redisSessionStore) Get(ctx context.Context, sessionID string) (Account, error) {
	raw, err := s.rc.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "session is expired or does not exist")
		}
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting session")
	}

	var acc Account
	if err := json.Unmarshal(raw, &acc); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting session")
	}

	return acc, nil
}
