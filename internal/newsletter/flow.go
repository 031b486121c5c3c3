package newsletter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/maison-storefront/pkg/logger"
	"github.com/angelmondragon/maison-storefront/pkg/metrics"
	"github.com/go-playground/validator/v10"
)

const (
	defaultTimeout = 10 * time.Second

	// InvalidEmailMessage is shown when the address fails syntax validation.
	InvalidEmailMessage = "Please enter a valid email address."
	// GenericFailureMessage is shown when the provider fails without a message of its own.
	GenericFailureMessage = "Something went wrong. Please try again."
)

// FlowOptions carries a Flow's collaborators.
type FlowOptions struct {
	Endpoint  Endpoint
	Logger    *logger.Logger
	Metrics   *metrics.StorefrontMetrics
	Timeout   time.Duration
	Validator *validator.Validate
}

// Flow is the state machine behind one newsletter form. At most one endpoint
// call is in flight; Success is terminal; a disposed flow ignores late results.
type Flow struct {
	endpoint Endpoint
	logg     *logger.Logger
	metrics  *metrics.StorefrontMetrics
	timeout  time.Duration
	validate *validator.Validate

	mu       sync.Mutex
	state    State
	settled  chan struct{}
	disposed bool
}

// NewFlow returns an Idle flow.
func NewFlow(opts FlowOptions) (*Flow, error) {
	if opts.Endpoint == nil {
		return nil, errors.New("newsletter endpoint required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Validator == nil {
		opts.Validator = validator.New()
	}
	settled := make(chan struct{})
	close(settled)
	return &Flow{
		endpoint: opts.Endpoint,
		logg:     opts.Logger,
		metrics:  opts.Metrics,
		timeout:  opts.Timeout,
		validate: opts.Validator,
		state:    Idle{},
		settled:  settled,
	}, nil
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit validates email and, when valid, starts the subscription call in the
// background. It returns the state right after the transition. Submits while
// Submitting, after Success or after Dispose are ignored.
func (f *Flow) Submit(ctx context.Context, email string) State {
	email = strings.TrimSpace(email)

	f.mu.Lock()
	if f.disposed {
		defer f.mu.Unlock()
		return f.state
	}
	switch f.state.(type) {
	case Submitting, Success:
		defer f.mu.Unlock()
		return f.state
	}
	if err := f.validate.Var(email, "required,email"); err != nil {
		f.state = Failed{Email: email, Message: InvalidEmailMessage}
		f.mu.Unlock()
		f.metrics.IncNewsletterOutcome("invalid")
		return Failed{Email: email, Message: InvalidEmailMessage}
	}
	f.state = Submitting{Email: email}
	settled := make(chan struct{})
	f.settled = settled
	f.mu.Unlock()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	go func() {
		defer cancel()
		f.call(callCtx, email, settled)
	}()
	return Submitting{Email: email}
}

// Await blocks until no call is in flight or ctx is done, then returns the state.
func (f *Flow) Await(ctx context.Context) State {
	f.mu.Lock()
	settled := f.settled
	f.mu.Unlock()
	select {
	case <-settled:
	case <-ctx.Done():
	}
	return f.State()
}

// Dispose marks the flow dead: a call still in flight can no longer change its state.
func (f *Flow) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed = true
}

func (f *Flow) call(ctx context.Context, email string, settled chan struct{}) {
	defer close(settled)

	started := time.Now()
	err := f.endpoint.Subscribe(ctx, email)
	f.metrics.ObserveNewsletterCall(time.Since(started))

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed {
		f.logg.Debug(ctx, "newsletter result dropped after dispose")
		return
	}
	if err == nil {
		f.state = Success{}
		f.metrics.IncNewsletterOutcome("success")
		return
	}
	f.state = Failed{Email: email, Message: failureMessage(err)}
	f.metrics.IncNewsletterOutcome("error")
	f.logg.Warn(f.logg.WithField(ctx, "error", err.Error()), "newsletter subscription failed")
}

func failureMessage(err error) string {
	var rejected *RejectedError
	if errors.As(err, &rejected) && strings.TrimSpace(rejected.Message) != "" {
		return rejected.Message
	}
	return GenericFailureMessage
}
