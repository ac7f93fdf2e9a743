package notify

import (
	"context"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// deliveryTimeout bounds one delivery attempt once it is detached from the
// request that triggered it.
const deliveryTimeout = 30 * time.Second

// Emitter turns freshly created transactions into notifications. Delivery is
// fire-and-forget: it runs in the background, outlives the triggering request
// and its failures are logged, never returned.
type Emitter struct {
	sink    Sink
	logger  *log.Logger
	now     func() time.Time
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewEmitter(sink Sink, logger *log.Logger) *Emitter {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Emitter{
		sink:    sink,
		logger:  logger.WithComponent(log.ComponentNotify),
		now:     time.Now,
		timeout: deliveryTimeout,
	}
}

// WithClock overrides the CreatedAt clock.
func (e *Emitter) WithClock(now func() time.Time) *Emitter {
	e.now = now
	return e
}

// Emit builds the notification for t and hands it to the sink in the
// background. It returns once the notification is built.
func (e *Emitter) Emit(ctx context.Context, userID string, t core.Transaction) {
	if e == nil || e.sink == nil {
		return
	}

	n, err := Build(t)
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to build notification",
			log.NewFields().WithUser(userID).WithError(err).WithOperation(log.OpDeliver).ToSlice()...)
		return
	}
	n.Read = false
	n.CreatedAt = e.now()

	e.wg.Add(1)
	go e.deliver(context.WithoutCancel(ctx), userID, t, n)
}

// Wait blocks until every delivery started by Emit has finished.
func (e *Emitter) Wait() {
	if e == nil {
		return
	}
	e.wg.Wait()
}

func (e *Emitter) deliver(ctx context.Context, userID string, t core.Transaction, n Notification) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "Notification delivery panicked", log.FieldUserID, userID, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.sink.Deliver(ctx, userID, n); err != nil {
		e.logger.WarnContext(ctx, "Failed to deliver notification",
			log.NewFields().
				WithUser(userID).
				WithTransaction(string(t.Kind), t.ID, t.Amount.Cents, t.Category).
				WithError(err).
				WithOperation(log.OpDeliver).
				ToSlice()...)
		return
	}
	e.logger.DebugContext(ctx, "Notification delivered", log.FieldUserID, userID, log.FieldNotification, string(n.Type))
}
