package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/joshcrispo/dissonant-pulse/pkg/errors"
	"github.com/joshcrispo/dissonant-pulse/pkg/status"
)

type contextKey string

const accountContextKey contextKey = "session.account"

// Account is the authenticated customer attached to the request context.
type Account struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Role      string `json:"role"`
}

type Session interface {
	Set(ctx context.Context, key string, acc Account, ttl time.Duration) error
	Get(ctx context.Context, key string) (Account, error)
	Delete(ctx context.Context, key string) error
}

type redisSessionStore struct {
	logger *logrus.Logger
	client *redis.Client
}

func NewRedisSessionStore(logger *logrus.Logger, client *redis.Client) Session {
	return &redisSessionStore{
		logger: logger,
		client: client,
	}
}

func sessionKey(key string) string {
	return fmt.Sprintf("session:%s", key)
}

// Set implements Session.
func (s *redisSessionStore) Set(ctx context.Context, key string, acc Account, ttl time.Duration) error {
	buff, _ := json.Marshal(acc)

	if err := s.client.Set(ctx, sessionKey(key), buff, ttl).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while storing the session")
	}

	return nil
}

// Get implements Session.
func (s *redisSessionStore) Get(ctx context.Context, key string) (Account, error) {
	buff, err := s.client.Get(ctx, sessionKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "session is not found")
		}
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting the session")
	}

	var acc Account
	if err := json.Unmarshal(buff, &acc); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return Account{}, errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while getting the session")
	}

	return acc, nil
}

// Delete implements Session.
func (s *redisSessionStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, sessionKey(key)).Err(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error()
		return errors.New(http.StatusInternalServerError, status.INTERNAL_SERVER_ERROR, "an error occurred while deleting the session")
	}

	return nil
}

// SetAccountToCtx attaches the authenticated account to the request context.
func SetAccountToCtx(ctx context.Context, acc Account) context.Context {
	return context.WithValue(ctx, accountContextKey, acc)
}

// GetAccountFromCtx returns the authenticated account stored by the session
// middleware.
func GetAccountFromCtx(ctx context.Context) (Account, error) {
	acc, ok := ctx.Value(accountContextKey).(Account)
	if !ok {
		return Account{}, errors.New(http.StatusUnauthorized, status.UNAUTHORIZED, "account is not found in the request context")
	}

	return acc, nil
}
