// Package lock serializes commits that touch the same products.
package lock

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-minimart-pos/internal/apperr"
)

// Release frees every key taken by one Acquire call. Calling it again is a
// no-op.
type Release func()

func releaseOnce(fn func()) Release {
	var once sync.Once
	return func() { once.Do(fn) }
}

// Locker takes all keys or none. Keys are always taken in sorted order so two
// commits over overlapping product sets cannot deadlock.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (Release, error)
}

// Normalize sorts keys and drops duplicates and empty strings
func Normalize(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type entry struct {
	sem  chan struct{}
	refs int
}

// Local is an in-process keyed mutex
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
	wait  time.Duration
}

func NewLocal(wait time.Duration) *Local {
	return &Local{locks: map[string]*entry{}, wait: wait}
}

func (l *Local) Acquire(ctx context.Context, keys ...string) (Release, error) {
	keys = Normalize(keys)
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.unlock(held[i])
		}
	}
	for _, k := range keys {
		if err := l.lock(ctx, k); err != nil {
			release()
			return nil, apperr.ErrLocked.Wrap(err).With("key", k)
		}
		held = append(held, k)
	}
	return releaseOnce(release), nil
}

func (l *Local) lock(ctx context.Context, key string) error {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.drop(key, e)
		l.mu.Unlock()
		return ctx.Err()
	}
}

func (l *Local) unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		return
	}
	select {
	case <-e.sem:
		l.drop(key, e)
	default:
	}
}

func (l *Local) drop(key string, e *entry) {
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}
