package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/softex1/tably-paket1/models"
)

const (
	DefaultLoginMaxAttempts = 5
	DefaultLoginLockout     = 15 * time.Minute
)

// AttemptStore tracks failed admin logins per username.
type AttemptStore interface {
	// LockedFor returns how long username stays locked, or zero.
	LockedFor(ctx context.Context, username string) (time.Duration, error)
	// RecordFailure counts a failure and returns the lockout it triggered,
	// or zero.
	RecordFailure(ctx context.Context, username string) (time.Duration, error)
	Reset(ctx context.Context, username string) error
}

// GormAttemptStore keeps attempts in the login_attempts table.
type GormAttemptStore struct {
	DB          *gorm.DB
	MaxAttempts int
	Lockout     time.Duration
	Now         func() time.Time
}

func NewGormAttemptStore(db *gorm.DB, maxAttempts int, lockout time.Duration) *GormAttemptStore {
	return &GormAttemptStore{
		DB:          db,
		MaxAttempts: maxAttempts,
		Lockout:     lockout,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *GormAttemptStore) LockedFor(ctx context.Context, username string) (time.Duration, error) {
	var attempt models.LoginAttempt
	err := s.DB.WithContext(ctx).Where("username = ?", username).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "lookup login attempts")
	}
	if attempt.LockedUntil == nil {
		return 0, nil
	}
	if remaining := attempt.LockedUntil.Sub(s.Now()); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

func (s *GormAttemptStore) RecordFailure(ctx context.Context, username string) (time.Duration, error) {
	var locked time.Duration
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.Now()
		var attempt models.LoginAttempt
		err := tx.Where("username = ?", username).First(&attempt).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrap(err, "lookup login attempts")
		}
		if !found {
			attempt = models.LoginAttempt{Username: username}
		}

		// an expired lock starts a fresh count
		if attempt.LockedUntil != nil && !now.Before(*attempt.LockedUntil) {
			attempt.LockedUntil = nil
			attempt.Failures = 0
		}

		attempt.Failures++
		if attempt.Failures >= s.MaxAttempts {
			until := now.Add(s.Lockout)
			attempt.LockedUntil = &until
			attempt.Failures = 0
			locked = s.Lockout
		}

		if !found {
			return errors.Wrap(tx.Create(&attempt).Error, "create login attempts")
		}
		return errors.Wrap(tx.Save(&attempt).Error, "save login attempts")
	})
	return locked, err
}

func (s *GormAttemptStore) Reset(ctx context.Context, username string) error {
	err := s.DB.WithContext(ctx).Where("username = ?", username).Delete(&models.LoginAttempt{}).Error
	return errors.Wrap(err, "reset login attempts")
}

// RedisAttemptStore shares lockouts between instances. Failure counters
// expire after the lockout window.
type RedisAttemptStore struct {
	Client      *redis.Client
	Prefix      string
	MaxAttempts int
	Lockout     time.Duration
}

func NewRedisAttemptStore(client *redis.Client, maxAttempts int, lockout time.Duration) *RedisAttemptStore {
	return &RedisAttemptStore{
		Client:      client,
		Prefix:      "tably:login:",
		MaxAttempts: maxAttempts,
		Lockout:     lockout,
	}
}

func (s *RedisAttemptStore) failKey(username string) string { return s.Prefix + "fail:" + username }
func (s *RedisAttemptStore) lockKey(username string) string { return s.Prefix + "lock:" + username }

func (s *RedisAttemptStore) LockedFor(ctx context.Context, username string) (time.Duration, error) {
	ttl, err := s.Client.PTTL(ctx, s.lockKey(username)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "read login lock")
	}
	// -2 missing, -1 no expiry
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (s *RedisAttemptStore) RecordFailure(ctx context.Context, username string) (time.Duration, error) {
	key := s.failKey(username)
	pipe := s.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.Lockout)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errors.Wrap(err, "record login failure")
	}

	if incr.Val() < int64(s.MaxAttempts) {
		return 0, nil
	}
	pipe = s.Client.TxPipeline()
	pipe.Set(ctx, s.lockKey(username), 1, s.Lockout)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errors.Wrap(err, "lock login")
	}
	return s.Lockout, nil
}

func (s *RedisAttemptStore) Reset(ctx context.Context, username string) error {
	err := s.Client.Del(ctx, s.failKey(username), s.lockKey(username)).Err()
	return errors.Wrap(err, "reset login attempts")
}
