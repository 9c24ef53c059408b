package core

// write_limiter.go bounds the number of background cache writes.
//
// Cache population runs after the response has been sent, so it must never
// block a request. The limiter hands out slots without waiting: when every
// slot is taken the write is dropped and counted. WaitForDrain lets shutdown
// hold the process open until in-flight writes finish.

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxConcurrentWrites is the default number of parallel cache writes.
const DefaultMaxConcurrentWrites = 64

// WriteLimiter controls concurrent background cache writes using a semaphore.
type WriteLimiter struct {
	semaphore chan struct{}

	mu      sync.RWMutex
	active  int
	dropped atomic.Int64
}

// NewWriteLimiter creates a limiter that runs at most maxConcurrent writes.
func NewWriteLimiter(maxConcurrent int) *WriteLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentWrites
	}
	return &WriteLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
	}
}

// TryAcquire takes a slot without blocking.
// The caller must call Release when it got one.
func (l *WriteLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		l.dropped.Add(1)
		return false
	}
}

// Release frees a slot taken by TryAcquire.
func (l *WriteLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// Go runs fn in its own goroutine if a slot is free.
// It returns false, without running fn, when the limiter is full.
func (l *WriteLimiter) Go(fn func()) bool {
	if !l.TryAcquire() {
		return false
	}
	go func() {
		defer l.Release()
		fn()
	}()
	return true
}

// ActiveCount returns the number of writes in flight.
func (l *WriteLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *WriteLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// Dropped returns how many writes were skipped because the limiter was full.
func (l *WriteLimiter) Dropped() int64 {
	return l.dropped.Load()
}

// WaitForDrain blocks until every in-flight write completes or ctx ends.
func (l *WriteLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// WriteLimiterStatus is a snapshot of the limiter.
type WriteLimiterStatus struct {
	Active        int   `json:"active"`
	Available     int   `json:"available"`
	MaxConcurrent int   `json:"max_concurrent"`
	Dropped       int64 `json:"dropped"`
}

// Status returns the current limiter state for monitoring.
func (l *WriteLimiter) Status() WriteLimiterStatus {
	return WriteLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.semaphore),
		Dropped:       l.Dropped(),
	}
}
