package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func TestBuildExpenseNotification(t *testing.T) {
	n := BuildExpenseNotification(core.Transaction{Amount: core.Money{Cents: 5000}, Category: "Groceries"})
	if n.Type != TypeExpense || n.Title != "New Expense Added" || n.Icon != "💸" || n.Read {
		t.Fatalf("unexpected shape: %+v", n)
	}
	if n.Message != "You added $50 for Groceries" {
		t.Fatalf("unexpected message: %q", n.Message)
	}
	if m := BuildExpenseNotification(core.Transaction{Amount: core.Money{Cents: 1250}, Category: "Gas"}).Message; m != "You added $12.50 for Gas" {
		t.Fatalf("unexpected message: %q", m)
	}
}

func TestBuildIncomeNotification(t *testing.T) {
	n := BuildIncomeNotification(core.Transaction{Amount: core.Money{Cents: 123456}, Category: "Salary"})
	if n.Type != TypeIncome || n.Title != "New Income Added" || n.Icon != "💰" {
		t.Fatalf("unexpected shape: %+v", n)
	}
	if n.Message != "You added $1234.56 from Salary" {
		t.Fatalf("unexpected message: %q", n.Message)
	}
}

func TestBuildBudgetAndGoal(t *testing.T) {
	b := BuildBudgetAlert("Travel", core.Money{Cents: 45000}, core.Money{Cents: 50000})
	if b.Type != TypeBudgetAlert || b.Message != "You've spent $450 of $500 budget for Travel" {
		t.Fatalf("unexpected budget alert: %+v", b)
	}
	g := BuildGoalNotification("Emergency Fund")
	if g.Type != TypeGoal || g.Message != "Congratulations! You've achieved your Emergency Fund goal!" {
		t.Fatalf("unexpected goal: %+v", g)
	}
}

func TestBuildRejectsUnknownKind(t *testing.T) {
	if _, err := Build(core.Transaction{Kind: "transfer"}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

type recordingSink struct {
	userID string
	got    []Notification
	err    error
}

func (r *recordingSink) Deliver(_ context.Context, userID string, n Notification) error {
	if r.err != nil {
		return r.err
	}
	r.userID = userID
	r.got = append(r.got, n)
	return nil
}

type panickingSink struct{}

func (panickingSink) Deliver(context.Context, string, Notification) error { panic("boom") }

func TestEmitterDelivers(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	sink := &recordingSink{}
	e := NewEmitter(sink, log.Discard()).WithClock(func() time.Time { return fixed })

	e.Emit(context.Background(), "u1", core.Transaction{Kind: core.Income, Amount: core.Money{Cents: 100}, Category: "Gift"})
	e.Wait()

	if len(sink.got) != 1 || sink.userID != "u1" {
		t.Fatalf("expected one delivery for u1, got %+v", sink)
	}
	if !sink.got[0].CreatedAt.Equal(fixed) || sink.got[0].Read {
		t.Fatalf("unexpected stamping: %+v", sink.got[0])
	}
}

func TestEmitterSwallowsFailures(t *testing.T) {
	tx := core.Transaction{Kind: core.Expense, Amount: core.Money{Cents: 100}, Category: "Gas"}

	for _, sink := range []Sink{&recordingSink{err: errors.New("store down")}, panickingSink{}} {
		e := NewEmitter(sink, log.Discard())
		e.Emit(context.Background(), "u1", tx)
		e.Wait()
	}

	bogus := &recordingSink{}
	e := NewEmitter(bogus, log.Discard())
	e.Emit(context.Background(), "u1", core.Transaction{Kind: "bogus"})
	e.Wait()
	if len(bogus.got) != 0 {
		t.Fatalf("unexpected delivery: %+v", bogus.got)
	}

	var nilEmitter *Emitter
	nilEmitter.Emit(context.Background(), "u1", tx)
	nilEmitter.Wait()
}

// blockingSink holds every delivery until release is closed.
type blockingSink struct {
	started chan struct{}
	release chan struct{}
	ctxErr  error
	done    int
}

func (b *blockingSink) Deliver(ctx context.Context, _ string, _ Notification) error {
	close(b.started)
	<-b.release
	b.ctxErr = ctx.Err()
	b.done++
	return nil
}

func TestEmitDoesNotWaitForDelivery(t *testing.T) {
	sink := &blockingSink{started: make(chan struct{}), release: make(chan struct{})}
	e := NewEmitter(sink, log.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})
	go func() {
		e.Emit(ctx, "u1", core.Transaction{Kind: core.Expense, Amount: core.Money{Cents: 100}, Category: "Gas"})
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a slow sink")
	}
	<-sink.started

	// The request finishing must not abort the delivery.
	cancel()
	close(sink.release)
	e.Wait()

	if sink.done != 1 {
		t.Fatalf("expected one completed delivery, got %d", sink.done)
	}
	if sink.ctxErr != nil {
		t.Fatalf("delivery context was cancelled with the request: %v", sink.ctxErr)
	}
}

func TestEmitBoundsDelivery(t *testing.T) {
	sink := &deadlineSink{}
	e := NewEmitter(sink, log.Discard())
	e.timeout = 20 * time.Millisecond

	e.Emit(context.Background(), "u1", core.Transaction{Kind: core.Income, Amount: core.Money{Cents: 100}, Category: "Gift"})
	e.Wait()

	if !errors.Is(sink.err, context.DeadlineExceeded) {
		t.Fatalf("expected the delivery to time out, got %v", sink.err)
	}
}

type deadlineSink struct{ err error }

func (d *deadlineSink) Deliver(ctx context.Context, _ string, _ Notification) error {
	<-ctx.Done()
	d.err = ctx.Err()
	return d.err
}

func TestStoreSinkAppends(t *testing.T) {
	store := &appendOnlyStore{}
	if err := (StoreSink{Store: store}).Deliver(context.Background(), "u1", Notification{Title: "x"}); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if store.appended != 1 {
		t.Fatalf("expected append, got %d", store.appended)
	}
}

type appendOnlyStore struct {
	Store
	appended int
}

func (s *appendOnlyStore) Append(context.Context, string, Notification) (string, error) {
	s.appended++
	return "n1", nil
}
