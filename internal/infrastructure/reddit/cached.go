package reddit

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/fairdatause/qualify-api/internal/logger"
	"go.uber.org/zap"
)

// Checker is what the qualification service needs from Reddit.
type Checker interface {
	UserExists(ctx context.Context, username string) (bool, error)
}

type cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// CachedChecker memoizes lookups. Cache failures and unreadable entries
// degrade to a direct lookup.
type CachedChecker struct {
	next  Checker
	cache cache
	ttl   time.Duration
}

func NewCachedChecker(next Checker, c cache, ttl time.Duration) *CachedChecker {
	return &CachedChecker{next: next, cache: c, ttl: ttl}
}

func (c *CachedChecker) UserExists(ctx context.Context, username string) (bool, error) {
	key := strings.ToLower(username)
	if v, ok, err := c.cache.Get(ctx, key); err != nil {
		logger.LogWarn("reddit cache read failed", zap.String("username", username), zap.Error(err))
	} else if ok {
		exists, perr := strconv.ParseBool(v)
		if perr == nil {
			return exists, nil
		}
		logger.LogWarn("reddit cache entry unreadable", zap.String("username", username), zap.String("value", v))
	}

	exists, err := c.next.UserExists(ctx, username)
	if err != nil {
		return false, err
	}
	if err := c.cache.Set(ctx, key, strconv.FormatBool(exists), c.ttl); err != nil {
		logger.LogWarn("reddit cache write failed", zap.String("username", username), zap.Error(err))
	}
	return exists, nil
}
