package checkout

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"retail-pos-backend/internal/payments"
	"retail-pos-backend/pkg/logger"
)

// AttemptStatus is the state of a payment confirmation attempt.
//
// pending → checking → {completed | failed}
//
// pending and checking are non-terminal; completed and failed are terminal
// and no transition leaves them.
type AttemptStatus string

const (
	StatusPending   AttemptStatus = "pending"
	StatusChecking  AttemptStatus = "checking"
	StatusCompleted AttemptStatus = "completed"
	StatusFailed    AttemptStatus = "failed"
)

func (s AttemptStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Attempt tracks one asynchronous payment confirmation. Exactly one attempt
// is active per checkout session; starting a new one discards the previous.
type Attempt struct {
	ID       string                     `json:"id"`
	OrderRef uint                       `json:"order_ref"`
	Amount   float64                    `json:"amount"`
	Method   payments.Method            `json:"method"`
	Status   AttemptStatus              `json:"status"`
	Polls    int                        `json:"polls"`
	Matched  *payments.ConfirmedPayment `json:"matched,omitempty"`

	discarded bool
}

// ConfirmerConfig tunes the polling state machine. The overall ceiling is
// wall-clock: SettleDelay + PollInterval × MaxAttempts.
type ConfirmerConfig struct {
	// SettleDelay is the grace period before the first poll, giving the
	// customer time to open their payment app and scan.
	SettleDelay time.Duration
	// PollInterval spaces consecutive polls. A slow poll response delays the
	// next attempt; polls are never issued concurrently.
	PollInterval time.Duration
	// MaxAttempts bounds the number of polls before the attempt fails.
	MaxAttempts int
	// AmountEpsilon absorbs floating-point and currency rounding when
	// comparing the observed amount against the target.
	AmountEpsilon float64
	// CloseDelay is the user-visible confirmation pause before the close
	// signal fires after a successful match.
	CloseDelay time.Duration
}

// Confirmer drives asynchronous payment confirmation by polling the
// confirmation source until a matching payment appears, the poll limit is
// reached, or the caller cancels. The completion callback is invoked at
// most once per attempt: the machine transitions out of checking before
// invoking it and never re-enters checking.
type Confirmer struct {
	cfg    ConfirmerConfig
	source payments.ConfirmationSource

	mu      sync.Mutex
	attempt *Attempt
	cancel  context.CancelFunc
	closed  chan struct{}
}

func NewConfirmer(cfg ConfirmerConfig, source payments.ConfirmationSource) *Confirmer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 30
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.AmountEpsilon <= 0 {
		cfg.AmountEpsilon = 0.01
	}
	return &Confirmer{cfg: cfg, source: source}
}

// Start begins a confirmation attempt for an asynchronous method. Any prior
// attempt is discarded first, its timers stopped and its callback dropped.
func (c *Confirmer) Start(ctx context.Context, orderRef uint, amount float64, methodType string, onComplete func(payments.ConfirmedPayment)) (Attempt, error) {
	method, ok := payments.MethodByType(methodType)
	if !ok {
		return Attempt{}, ErrUnknownMethod
	}
	if method.Kind != payments.KindAsynchronous {
		return Attempt{}, ErrMethodSynchronous
	}

	attempt := &Attempt{
		ID:       uuid.NewString(),
		OrderRef: orderRef,
		Amount:   amount,
		Method:   method,
		Status:   StatusPending,
	}

	runCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.attempt != nil && !c.attempt.Status.Terminal() {
		c.attempt.discarded = true
	}
	prevCancel := c.cancel
	c.attempt = attempt
	c.cancel = cancel
	c.closed = make(chan struct{})
	closed := c.closed
	c.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}

	logger.Info("Payment confirmation started", map[string]interface{}{
		"attempt_id": attempt.ID,
		"order_ref":  orderRef,
		"method":     method.Type,
		"amount":     amount,
	})

	go c.run(runCtx, attempt, onComplete, closed)

	return *attempt, nil
}

// Status returns a copy of the active attempt.
func (c *Confirmer) Status() (Attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil {
		return Attempt{}, ErrNoActiveAttempt
	}
	return *c.attempt, nil
}

// Cancel stops polling immediately and discards the attempt without invoking
// the completion callback. Cancelling a terminal attempt is refused; the UI
// additionally disables its close affordance while checking so a payment in
// flight is not abandoned mid-scan.
func (c *Confirmer) Cancel() error {
	c.mu.Lock()
	attempt := c.attempt
	cancel := c.cancel
	if attempt == nil {
		c.mu.Unlock()
		return ErrNoActiveAttempt
	}
	if attempt.Status.Terminal() {
		c.mu.Unlock()
		return ErrAttemptTerminal
	}
	attempt.discarded = true
	c.attempt = nil
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	logger.Info("Payment confirmation cancelled", map[string]interface{}{
		"attempt_id": attempt.ID,
		"order_ref":  attempt.OrderRef,
	})
	return nil
}

// Clear drops an attempt that already reached a terminal state, making room
// for the next sale. Non-terminal attempts are left alone.
func (c *Confirmer) Clear() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil || !c.attempt.Status.Terminal() {
		return false
	}
	c.attempt = nil
	c.cancel = nil
	return true
}

// CloseSignal is closed shortly after a successful confirmation, telling the
// checkout screen to dismiss the QR view.
func (c *Confirmer) CloseSignal() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// run is the single polling goroutine of an attempt. Polls are strictly
// sequential: the next poll is scheduled only after the previous result is
// known, so requests never pile up against the same order.
func (c *Confirmer) run(ctx context.Context, attempt *Attempt, onComplete func(payments.ConfirmedPayment), closed chan struct{}) {
	settle := time.NewTimer(c.cfg.SettleDelay)
	select {
	case <-ctx.Done():
		settle.Stop()
		return
	case <-settle.C:
	}

	if !c.transition(attempt, StatusPending, StatusChecking) {
		return
	}

	for poll := 1; poll <= c.cfg.MaxAttempts; poll++ {
		if ctx.Err() != nil {
			return
		}

		observed, err := c.source.Payments(ctx, attempt.OrderRef)

		c.mu.Lock()
		attempt.Polls = poll
		c.mu.Unlock()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("Confirmation poll failed", map[string]interface{}{
				"attempt_id": attempt.ID,
				"order_ref":  attempt.OrderRef,
				"poll":       poll,
				"error":      err.Error(),
			})
		} else if match := c.findMatch(observed, attempt); match != nil {
			if !c.complete(attempt, match) {
				return
			}
			onComplete(*match)
			c.signalClose(ctx, attempt, closed)
			return
		}

		if poll == c.cfg.MaxAttempts {
			break
		}

		wait := time.NewTimer(c.cfg.PollInterval)
		select {
		case <-ctx.Done():
			wait.Stop()
			return
		case <-wait.C:
		}
	}

	if c.transition(attempt, StatusChecking, StatusFailed) {
		logger.Warn("Payment confirmation timed out", map[string]interface{}{
			"attempt_id": attempt.ID,
			"order_ref":  attempt.OrderRef,
			"polls":      c.cfg.MaxAttempts,
		})
	}
}

// transition moves the attempt between states; it refuses discarded attempts
// and anything not in the expected source state, which is what makes the
// stop paths idempotent against each other.
func (c *Confirmer) transition(attempt *Attempt, from, to AttemptStatus) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if attempt.discarded || attempt.Status != from {
		return false
	}
	attempt.Status = to
	return true
}

// complete marks the attempt completed before the callback runs, so the
// callback fires at most once across the attempt's lifetime.
func (c *Confirmer) complete(attempt *Attempt, match *payments.ConfirmedPayment) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if attempt.discarded || attempt.Status != StatusChecking {
		return false
	}
	attempt.Status = StatusCompleted
	attempt.Matched = match

	logger.Info("Payment confirmed", map[string]interface{}{
		"attempt_id": attempt.ID,
		"order_ref":  attempt.OrderRef,
		"payment_id": match.ID,
		"amount":     match.Amount,
	})
	return true
}

func (c *Confirmer) signalClose(ctx context.Context, attempt *Attempt, closed chan struct{}) {
	pause := time.NewTimer(c.cfg.CloseDelay)
	select {
	case <-ctx.Done():
		pause.Stop()
	case <-pause.C:
	}

	c.mu.Lock()
	if c.attempt == attempt {
		close(closed)
	}
	c.mu.Unlock()
}

func (c *Confirmer) findMatch(observed []payments.ConfirmedPayment, attempt *Attempt) *payments.ConfirmedPayment {
	for i := range observed {
		candidate := observed[i]
		if math.Abs(candidate.Amount-attempt.Amount) > c.cfg.AmountEpsilon {
			continue
		}
		if methodMatches(candidate.Method, attempt.Method) {
			return &candidate
		}
	}
	return nil
}

// methodMatches compares the externally reported method name against the
// attempt's method. The comparison is a case-insensitive substring match in
// either direction because the confirmation source's method naming is not
// guaranteed to be canonical ("QRIS Dynamic" should match "qris").
func methodMatches(reported string, method payments.Method) bool {
	reported = strings.ToLower(strings.TrimSpace(reported))
	if reported == "" {
		return false
	}
	for _, name := range []string{method.Type, method.Label} {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if strings.Contains(reported, name) || strings.Contains(name, reported) {
			return true
		}
	}
	return false
}
