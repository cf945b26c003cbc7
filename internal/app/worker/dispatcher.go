package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"code_practice/internal/common"
	"code_practice/internal/judge"
	"code_practice/internal/platform/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrDispatcherClosed = fmt.Errorf("dispatcher closed: %w", common.ErrServiceUnavailable)

// Executor runs a single program on the execution engine.
type Executor interface {
	Run(ctx context.Context, req judge.Request) (*judge.Result, error)
}

// Quota is the shared daily quota flag.
type Quota interface {
	Exhausted(ctx context.Context) bool
	Trip(ctx context.Context) time.Time
	Until(ctx context.Context) time.Time
}

type State string

const (
	StateIdle     State = "idle"
	StateDraining State = "draining"
	StateCooldown State = "cooldown"
)

type Config struct {
	MinDelay   time.Duration // minimum gap between two dispatches
	MaxRetries int           // attempts per entry when the engine answers 429
	Cooldown   time.Duration // pause after a 429
	MaxQueue   int           // 0 means unbounded
}

// RetryBudget is the longest one entry can spend in the dispatcher when every attempt is
// rate limited, given the time a single engine run may take.
func (c Config) RetryBudget(attempt time.Duration) time.Duration {
	attempts := c.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	return time.Duration(attempts-1)*c.Cooldown + time.Duration(attempts)*(c.MinDelay+attempt)
}

// Status is a snapshot for clients that show engine banners.
type Status struct {
	State             State      `json:"state"`
	QueueLength       int        `json:"queue_length"`
	InFlight          bool       `json:"in_flight"`
	CooldownRemaining float64    `json:"cooldown_remaining_seconds"`
	Offline           bool       `json:"offline"`
	OfflineUntil      *time.Time `json:"offline_until,omitempty"`
}

type outcome struct {
	res *judge.Result
	err error
}

type entry struct {
	id      string
	ctx     context.Context
	req     judge.Request
	retries int
	done    chan outcome
}

func (e *entry) finish(res *judge.Result, err error) {
	select {
	case e.done <- outcome{res: res, err: err}:
	default:
	}
}

// Dispatcher serializes calls to the execution engine: one request in flight,
// MinDelay between requests, and a cooldown with bounded retries on 429.
type Dispatcher struct {
	exec  Executor
	quota Quota
	cfg   Config

	mu            sync.Mutex
	queue         []*entry
	state         State
	inFlight      bool
	lastDispatch  time.Time
	cooldownUntil time.Time
	closed        bool

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewDispatcher(exec Executor, quota Quota, cfg Config) *Dispatcher {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	return &Dispatcher{
		exec:  exec,
		quota: quota,
		cfg:   cfg,
		state: StateIdle,
		stop:  make(chan struct{}),
	}
}

// Submit queues req and blocks until it was run, failed, or ctx ended.
func (d *Dispatcher) Submit(ctx context.Context, req judge.Request) (*judge.Result, error) {
	e := &entry{
		id:   uuid.NewString(),
		ctx:  ctx,
		req:  req,
		done: make(chan outcome, 1),
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrDispatcherClosed
	}
	if d.state == StateCooldown {
		remaining := time.Until(d.cooldownUntil)
		d.mu.Unlock()
		return nil, &common.RateLimitError{
			Message:    "execution engine is cooling down after a rate limit",
			RetryAfter: remaining,
		}
	}
	if d.cfg.MaxQueue > 0 && len(d.queue) >= d.cfg.MaxQueue {
		d.mu.Unlock()
		return nil, &common.RateLimitError{
			Message:    fmt.Sprintf("execution queue is full (%d pending)", d.cfg.MaxQueue),
			RetryAfter: d.cfg.MinDelay * time.Duration(d.cfg.MaxQueue),
		}
	}
	d.queue = append(d.queue, e)
	position := len(d.queue)
	if d.state == StateIdle {
		d.state = StateDraining
		d.wg.Add(1)
		go d.drain()
	}
	d.mu.Unlock()

	logger.Debug(ctx, "execution request queued", zap.String("request_id", e.id), zap.Int("position", position))

	select {
	case o := <-e.done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *Dispatcher) drain() {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		if d.closed || len(d.queue) == 0 {
			pending := d.queue
			d.queue = nil
			d.state = StateIdle
			d.mu.Unlock()
			for _, e := range pending {
				e.finish(nil, ErrDispatcherClosed)
			}
			return
		}
		e := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		if err := e.ctx.Err(); err != nil {
			e.finish(nil, err)
			continue
		}
		if d.quota != nil && d.quota.Exhausted(e.ctx) {
			e.finish(nil, judge.ErrQuotaExhausted)
			continue
		}
		if !d.waitTurn() {
			e.finish(nil, ErrDispatcherClosed)
			continue
		}
		if err := e.ctx.Err(); err != nil {
			e.finish(nil, err)
			continue
		}

		d.mu.Lock()
		d.lastDispatch = time.Now()
		d.inFlight = true
		d.mu.Unlock()

		d.dispatch(e)

		d.mu.Lock()
		d.inFlight = false
		d.mu.Unlock()
	}
}

// waitTurn blocks until MinDelay has passed since the previous dispatch.
// It returns false when the dispatcher was closed meanwhile.
func (d *Dispatcher) waitTurn() bool {
	d.mu.Lock()
	wait := d.cfg.MinDelay - time.Since(d.lastDispatch)
	d.mu.Unlock()
	if wait > 0 {
		d.pause(wait)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed
}

func (d *Dispatcher) dispatch(e *entry) {
	ctx := e.ctx
	res, err := d.exec.Run(ctx, e.req)
	if err == nil {
		e.finish(res, nil)
		return
	}

	var rlErr *common.RateLimitError
	if !errors.As(err, &rlErr) {
		logger.Warn(ctx, "execution request failed", zap.String("request_id", e.id), zap.Error(err))
		e.finish(nil, err)
		return
	}

	if rlErr.Daily {
		if d.quota != nil {
			d.quota.Trip(ctx)
		}
		e.finish(nil, fmt.Errorf("%w: %s", judge.ErrQuotaExhausted, rlErr.Message))
		return
	}

	e.retries++
	if e.retries >= d.cfg.MaxRetries {
		logger.Warn(ctx, "execution request rate limited, retries exhausted",
			zap.String("request_id", e.id), zap.Int("attempts", e.retries))
		e.finish(nil, &common.RateLimitError{
			Message:    fmt.Sprintf("execution engine rate limited after %d attempts", e.retries),
			RetryAfter: d.cfg.Cooldown,
		})
		return
	}

	logger.Info(ctx, "execution engine rate limited, cooling down",
		zap.String("request_id", e.id), zap.Int("retry", e.retries), zap.Duration("cooldown", d.cfg.Cooldown))

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		e.finish(nil, ErrDispatcherClosed)
		return
	}
	d.queue = append([]*entry{e}, d.queue...)
	d.state = StateCooldown
	d.cooldownUntil = time.Now().Add(d.cfg.Cooldown)
	d.inFlight = false
	d.mu.Unlock()

	d.pause(d.cfg.Cooldown)

	d.mu.Lock()
	if d.state == StateCooldown {
		d.state = StateDraining
	}
	d.cooldownUntil = time.Time{}
	d.mu.Unlock()
}

// pause sleeps for dur unless the dispatcher is closed first.
func (d *Dispatcher) pause(dur time.Duration) {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
	case <-d.stop:
	}
}

// Status reports the current dispatcher and quota state.
func (d *Dispatcher) Status(ctx context.Context) Status {
	d.mu.Lock()
	st := Status{
		State:       d.state,
		QueueLength: len(d.queue),
		InFlight:    d.inFlight,
	}
	if d.state == StateCooldown {
		if remaining := time.Until(d.cooldownUntil); remaining > 0 {
			st.CooldownRemaining = remaining.Seconds()
		}
	}
	d.mu.Unlock()

	if d.quota != nil {
		if until := d.quota.Until(ctx); !until.IsZero() {
			st.Offline = true
			st.OfflineUntil = &until
		}
	}
	return st
}

// Offline reports whether the daily quota is exhausted.
func (d *Dispatcher) Offline(ctx context.Context) bool {
	return d.quota != nil && d.quota.Exhausted(ctx)
}

// Close fails queued entries and waits for the in-flight one to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	pending := d.queue
	d.queue = nil
	close(d.stop)
	d.mu.Unlock()

	for _, e := range pending {
		e.finish(nil, ErrDispatcherClosed)
	}
	d.wg.Wait()
}
