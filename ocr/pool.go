package ocr

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("engine pool is closed")

// Pool is a fixed set of engines checked out exclusively. A request holds
// one engine for all of its profiles, so concurrent requests never observe
// each other's parameters.
type Pool struct {
	idle chan Engine
	all  []Engine
	done chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewPool creates size engines with newEngine. If any creation fails, the
// engines created so far are closed and the error is returned.
func NewPool(size int, newEngine func() (Engine, error)) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	p := &Pool{
		idle: make(chan Engine, size),
		done: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		e, err := newEngine()
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("create engine %d: %w", i, err)
		}
		p.all = append(p.all, e)
		p.idle <- e
	}
	return p, nil
}

// Size returns the number of engines in the pool.
func (p *Pool) Size() int {
	return len(p.all)
}

// Name returns the name of the pooled engines.
func (p *Pool) Name() string {
	if len(p.all) == 0 {
		return ""
	}
	return p.all[0].Name()
}

// Acquire checks out an engine, blocking until one is idle, ctx is done or
// the pool is closed.
func (p *Pool) Acquire(ctx context.Context) (Engine, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}

	select {
	case e := <-p.idle:
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		return nil, ErrPoolClosed
	}
}

// Release returns an engine obtained from Acquire.
func (p *Pool) Release(e Engine) {
	if e == nil {
		return
	}
	select {
	case <-p.done:
		return
	default:
	}
	select {
	case p.idle <- e:
	default:
	}
}

// Close closes every engine in the pool. Engines still checked out are
// closed too and must not be used afterwards.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		var errs []error
		for _, e := range p.all {
			if err := e.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", e.Name(), err))
			}
		}
		p.closeErr = errors.Join(errs...)
	})
	return p.closeErr
}
