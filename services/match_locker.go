package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// MatchLocker serializes score mutations per match id. Submissions for
// different matches never contend; for the same match, at most one caller
// holds the section and the rest wait up to the configured timeout before
// failing with ErrScoreBusy. There is deliberately no broader lock.
type MatchLocker struct {
	mu      sync.Mutex
	sems    map[int]*semaphore.Weighted
	timeout time.Duration
}

const DefaultLockTimeout = 250 * time.Millisecond

func NewMatchLocker(timeout time.Duration) *MatchLocker {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	return &MatchLocker{
		sems:    make(map[int]*semaphore.Weighted),
		timeout: timeout,
	}
}

func (l *MatchLocker) sem(matchID int) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.sems[matchID]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.sems[matchID] = sem
	}
	return sem
}

// Acquire takes the exclusive section for one match. The returned release
// function is idempotent, so it is safe to both defer it and call it early
// to publish outside the section.
func (l *MatchLocker) Acquire(ctx context.Context, matchID int) (release func(), err error) {
	sem := l.sem(matchID)

	acquireCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := sem.Acquire(acquireCtx, 1); err != nil {
		// The caller's own context expiring is not contention.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrScoreBusy
	}

	var once sync.Once
	return func() {
		once.Do(func() { sem.Release(1) })
	}, nil
}
