package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sefazor/storefront/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultPollInterval = 10 * time.Second

var (
	// ErrPollExhausted is returned once MaxAttempts or Timeout is spent without a terminal status.
	ErrPollExhausted = errors.New("payment still pending, polling gave up")
	ErrPollStopped   = errors.New("payment polling already stopped")
)

// CheckFunc asks the backend for the current payment status.
type CheckFunc func(ctx context.Context) (models.PaymentStatus, error)

type PollConfig struct {
	Interval time.Duration
	// MaxAttempts caps the number of checks, zero means no cap.
	MaxAttempts int
	// Timeout caps the wall clock time spent polling, zero means no cap.
	Timeout time.Duration
}

type PollResult struct {
	Status   models.PaymentStatus
	Attempts int
}

type Poller struct {
	cfg    PollConfig
	logger *zap.Logger
}

func NewPoller(cfg PollConfig, logger *zap.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{cfg: cfg, logger: logger}
}

func (p *Poller) Config() PollConfig {
	return p.cfg
}

// Start polls check every Interval until it reports a terminal status, the
// budget runs out, ctx ends or the handle is canceled. The first check runs
// one interval after Start.
func (p *Poller) Start(ctx context.Context, check CheckFunc) *PollHandle {
	runCtx, cancel := context.WithCancel(ctx)
	h := &PollHandle{
		check:   check,
		cancel:  cancel,
		logger:  p.logger,
		done:    make(chan struct{}),
		settled: make(chan struct{}),
		status:  models.PaymentStatusPending,
	}
	go h.run(runCtx, p.cfg)
	return h
}

// PollHandle controls one polling session. At most one check is in flight at
// any time and no check is issued once a terminal status was seen.
type PollHandle struct {
	check  CheckFunc
	cancel context.CancelFunc
	logger *zap.Logger

	flight     singleflight.Group
	done       chan struct{}
	settled    chan struct{}
	settleOnce sync.Once

	mu       sync.Mutex
	status   models.PaymentStatus
	attempts int
	err      error
}

func (h *PollHandle) run(ctx context.Context, cfg PollConfig) {
	defer close(h.done)
	defer h.cancel()

	var budget <-chan time.Time
	if cfg.Timeout > 0 {
		timer := time.NewTimer(cfg.Timeout)
		defer timer.Stop()
		budget = timer.C
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.settled:
			h.finish(nil)
			return
		case <-ctx.Done():
			h.finish(ctx.Err())
			return
		case <-budget:
			h.finish(ErrPollExhausted)
			return
		case <-ticker.C:
			status, _ := h.poll(ctx)
			if status.IsTerminal() {
				h.finish(nil)
				return
			}
			if cfg.MaxAttempts > 0 && h.Attempts() >= cfg.MaxAttempts {
				h.finish(ErrPollExhausted)
				return
			}
		}
	}
}

func (h *PollHandle) poll(ctx context.Context) (models.PaymentStatus, error) {
	v, err, _ := h.flight.Do("check", func() (interface{}, error) {
		h.mu.Lock()
		current := h.status
		h.mu.Unlock()
		if current.IsTerminal() {
			return current, nil
		}
		select {
		case <-h.done:
			return current, ErrPollStopped
		default:
		}

		status, err := h.check(ctx)

		h.mu.Lock()
		h.attempts++
		attempt := h.attempts
		if err == nil && status != "" {
			h.status = status
		}
		current = h.status
		h.mu.Unlock()

		h.logger.Debug("payment status checked",
			zap.Int("attempt", attempt),
			zap.String("status", string(current)),
		)
		if err != nil {
			// Keep polling, the next tick may succeed.
			h.logger.Warn("payment status check failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return current, err
		}
		if current.IsTerminal() {
			h.settleOnce.Do(func() { close(h.settled) })
		}
		return current, nil
	})
	status, _ := v.(models.PaymentStatus)
	return status, err
}

func (h *PollHandle) finish(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status.IsTerminal() {
		err = nil
	}
	h.err = err
}

// CheckNow runs a check outside the schedule, or joins the one in flight.
func (h *PollHandle) CheckNow(ctx context.Context) (models.PaymentStatus, error) {
	return h.poll(ctx)
}

// Cancel stops polling. It is safe to call more than once.
func (h *PollHandle) Cancel() {
	h.cancel()
}

func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

func (h *PollHandle) Status() models.PaymentStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *PollHandle) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

// Wait blocks until polling stops. The error is nil when a terminal status
// was reached, ErrPollExhausted when the budget ran out and the context
// error when canceled.
func (h *PollHandle) Wait(ctx context.Context) (PollResult, error) {
	select {
	case <-h.done:
	case <-ctx.Done():
		return h.snapshot(), ctx.Err()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return PollResult{Status: h.status, Attempts: h.attempts}, h.err
}

func (h *PollHandle) snapshot() PollResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return PollResult{Status: h.status, Attempts: h.attempts}
}
