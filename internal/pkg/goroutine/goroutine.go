// Package goroutine runs background workers (message consumers, backup
// uploads) under one bounded, waitable manager.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/PrzemekSkw/totp-sync/internal/pkg/stacktrace"
)

// DefaultLimit is used when NewManager receives a non-positive limit.
const DefaultLimit = 64

var (
	ErrClosed    = errors.New("goroutine: manager closed")
	ErrSaturated = errors.New("goroutine: limit reached")
)

// Manager bounds the number of concurrently running workers and collects
// their errors until Wait.
type Manager struct {
	slots chan struct{}
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
	errs   []error
}

func NewManager(limit int) *Manager {
	if limit < 1 {
		limit = DefaultLimit
	}

	return &Manager{slots: make(chan struct{}, limit)}
}

// Go starts f under name. It returns ErrSaturated instead of blocking when
// every slot is taken, and ErrClosed once Wait has been called.
func (m *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		slog.WarnContext(ctx, "goroutine manager closed, worker not started", "worker", name)
		return ErrClosed
	}

	select {
	case m.slots <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached, worker not started", "worker", name)
		return ErrSaturated
	}

	m.wg.Go(func() {
		defer func() { <-m.slots }()
		m.run(ctx, name, f)
	})

	return nil
}

func (m *Manager) run(ctx context.Context, name string, f func(ctx context.Context) error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			paths := stacktrace.InternalPaths(stack)
			slog.ErrorContext(ctx, "worker panicked", "worker", name, "panic", rvr, "stack", paths)
			m.record(fmt.Errorf("%s: panic: %v", name, rvr))
		}
	}()

	if err := ctx.Err(); err != nil {
		slog.WarnContext(ctx, "worker canceled before start", "worker", name, "because", err)
		return
	}

	// Cancellation is the normal way consumers stop.
	if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
		m.record(fmt.Errorf("%s: %w", name, err))
	}
}

func (m *Manager) record(err error) {
	m.mu.Lock()
	m.errs = append(m.errs, err)
	m.mu.Unlock()
}

// Wait closes the manager, blocks until every worker returns and joins their errors.
func (m *Manager) Wait() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	return errors.Join(m.errs...)
}
