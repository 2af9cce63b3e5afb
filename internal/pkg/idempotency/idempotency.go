// Package idempotency guards an operation with a redis key so a client retry
// carrying the same key runs it at most once.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrInvalidState      = errors.New("invalid state")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

func (s State) String() string {
	return string(s)
}

type Idempotency interface {
	// Exec runs fn unless key is in progress or completed. A failing fn
	// releases the key so the same request can be retried.
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

type StateTracker struct {
	client *redis.Client
	prefix string
}

func New(client *redis.Client) *StateTracker {
	return &StateTracker{
		client: client,
		prefix: "idempotency:",
	}
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute

	markAttempts = 3
	markBackoff  = 50 * time.Millisecond
)

type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration bounds how long a crashed run keeps the key locked.
func WithLockDuration(lockDuration time.Duration) Option {
	return func(o *execOptions) {
		o.lockDuration = lockDuration
	}
}

// WithStateTTL sets how long a completed key is remembered.
func WithStateTTL(stateTTL time.Duration) Option {
	return func(o *execOptions) {
		o.stateTTL = stateTTL
	}
}

func (s *StateTracker) acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	acquired, err := s.client.SetNX(ctx, key, StateInProgress.String(), lockDuration).Result()
	if err != nil {
		return StateNone, err
	}
	if acquired {
		return StateNone, nil
	}

	result, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SetNX and Get.
		return s.acquire(ctx, key, lockDuration)
	}
	if err != nil {
		return StateNone, err
	}

	switch State(result) {
	case StateInProgress, StateCompleted:
		return State(result), nil
	default:
		return StateNone, ErrInvalidState
	}
}

func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	execOpt := &execOptions{
		lockDuration: defaultLockDuration,
		stateTTL:     defaultStateTTL,
	}
	for _, opt := range opts {
		opt(execOpt)
	}
	if execOpt.lockDuration <= 0 {
		execOpt.lockDuration = defaultLockDuration
	}
	if execOpt.stateTTL <= 0 {
		execOpt.stateTTL = defaultStateTTL
	}

	fk := s.prefix + key
	state, err := s.acquire(ctx, fk, execOpt.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	}

	if err := fn(ctx); err != nil {
		return errors.Join(err, s.withRetry(ctx, func(ctx context.Context) error {
			return s.client.Del(ctx, fk).Err()
		}))
	}

	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, fk, StateCompleted.String(), execOpt.stateTTL).Err()
	})
}

// withRetry retries transient redis failures; losing the final state write
// would let a completed operation run again once the lock expires.
func (s *StateTracker) withRetry(ctx context.Context, f func(context.Context) error) error {
	b := retry.WithMaxRetries(markAttempts, retry.NewExponential(markBackoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := f(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
