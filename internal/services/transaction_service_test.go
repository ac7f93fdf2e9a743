package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	notifymem "fintrack/internal/notify/memory"
	"fintrack/internal/report"
	"fintrack/internal/repository/memory"
	"fintrack/internal/repository/mocks"
	"fintrack/internal/services"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func record(id string, kind core.Kind, cents int64, category string, y, m, d int) core.Transaction {
	return core.Transaction{
		ID:          id,
		Kind:        kind,
		Date:        core.NewDate(y, m, d),
		Description: "entry " + id,
		Amount:      core.Money{Cents: cents},
		Category:    category,
	}
}

func newSeededService(t *testing.T) (*services.TransactionService, *notifymem.Store, *notify.Emitter) {
	t.Helper()
	repo := memory.New().WithClock(clock)
	repo.Seed("u1",
		record("1", core.Expense, 5000, "Groceries", 2024, 3, 2),
		record("2", core.Expense, 2000, "Gas", 2024, 2, 20),
		record("3", core.Income, 300000, "Salary", 2024, 3, 1),
	)
	store := notifymem.New()
	emitter := notify.NewEmitter(notify.StoreSink{Store: store}, log.Discard()).WithClock(clock)
	svc := services.NewTransactionService(repo,
		services.WithEmitter(emitter),
		services.WithCache(cache.NewLRUCache[[]core.Transaction](10, time.Minute)),
		services.WithClock(clock),
		services.WithLogger(log.Discard()),
	)
	return svc, store, emitter
}

func TestDashboard(t *testing.T) {
	svc, _, _ := newSeededService(t)

	d, err := svc.Dashboard(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, int64(300000), d.TotalIncome.Cents)
	assert.Equal(t, int64(7000), d.TotalExpenses.Cents)
	assert.Equal(t, int64(293000), d.Balance.Cents)
	assert.Equal(t, int64(5000), d.MonthlyExpenses.Cents)
	require.Len(t, d.Recent, 3)
	assert.Equal(t, core.Expense, d.Recent[0].Kind)
	assert.Equal(t, core.Income, d.Recent[1].Kind)
}

func TestReport(t *testing.T) {
	svc, _, _ := newSeededService(t)

	r, err := svc.Report(context.Background(), "u1", report.CurrentMonth)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), r.TotalExpenses.Cents)
	assert.Equal(t, int64(295000), r.Net.Cents)
	require.Len(t, r.ExpenseBreakdown, 1)
	assert.Equal(t, "Groceries", r.ExpenseBreakdown[0].Name)

	_, err = svc.Report(context.Background(), "u1", "last-decade")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestMissingUser(t *testing.T) {
	svc, _, _ := newSeededService(t)

	_, err := svc.Dashboard(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	_, err = svc.List(context.Background(), " ", core.Expense, report.ListOptions{})
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestCreateEmitsNotificationAndInvalidatesCache(t *testing.T) {
	svc, store, emitter := newSeededService(t)
	ctx := context.Background()

	before, err := svc.List(ctx, "u1", core.Expense, report.ListOptions{})
	require.NoError(t, err)
	require.Len(t, before, 2)

	created, err := svc.Create(ctx, "u1", core.Transaction{
		Kind:        core.Expense,
		Date:        core.NewDate(2024, 3, 10),
		Description: "  Weekly shop ",
		Amount:      core.Money{Cents: 4250},
		Category:    "Groceries",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Weekly shop", created.Description)

	after, err := svc.List(ctx, "u1", core.Expense, report.ListOptions{})
	require.NoError(t, err)
	require.Len(t, after, 3)
	assert.Equal(t, created.ID, after[0].ID)

	emitter.Wait()
	notes, err := store.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "You added $42.50 for Groceries", notes[0].Message)
	assert.False(t, notes[0].Read)
	assert.True(t, notes[0].CreatedAt.Equal(now))
}

func TestCreateRejectsInvalid(t *testing.T) {
	svc, store, emitter := newSeededService(t)

	_, err := svc.Create(context.Background(), "u1", core.Transaction{
		Kind:        core.Income,
		Date:        core.NewDate(2024, 3, 10),
		Description: "x",
		Amount:      core.Money{Cents: 100},
		Category:    "Salary",
	})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	emitter.Wait()
	notes, _ := store.List(context.Background(), "u1")
	assert.Empty(t, notes)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _, _ := newSeededService(t)
	ctx := context.Background()

	err := svc.Update(ctx, "u1", core.Expense, "1", core.Patch{
		Date:        core.NewDate(2024, 3, 3),
		Description: "Farmers market",
		Amount:      core.Money{Cents: 6100},
		Category:    "Groceries",
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "u1", core.Expense, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(6100), got.Amount.Cents)

	require.NoError(t, svc.Delete(ctx, "u1", core.Expense, "1"))
	_, err = svc.Get(ctx, "u1", core.Expense, "1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = svc.Delete(ctx, "u1", core.Expense, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListOptionsAreApplied(t *testing.T) {
	svc, _, _ := newSeededService(t)

	got, err := svc.List(context.Background(), "u1", core.Expense, report.ListOptions{SortBy: report.SortByAmount})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)

	_, err = svc.List(context.Background(), "u1", core.Expense, report.ListOptions{SortBy: "color"})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestCategories(t *testing.T) {
	svc, _, _ := newSeededService(t)

	got, err := svc.Categories(core.Income)
	require.NoError(t, err)
	assert.Contains(t, got, "Rental Income")

	_, err = svc.Categories("transfer")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestDashboardFailsWhenOneFetchFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().List(gomock.Any(), "u1", core.Expense).
		Return([]core.Transaction{record("1", core.Expense, 100, "Gas", 2024, 3, 1)}, nil).AnyTimes()
	repo.EXPECT().List(gomock.Any(), "u1", core.Income).
		Return(nil, fmt.Errorf("read income: %w", core.ErrUnavailable))

	svc := services.NewTransactionService(repo, services.WithClock(clock), services.WithLogger(log.Discard()))

	_, err := svc.Dashboard(context.Background(), "u1")
	assert.ErrorIs(t, err, core.ErrUnavailable)
}

func TestCreateSurvivesNotificationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tx := record("", core.Expense, 999, "Travel", 2024, 3, 9)
	tx.Description = "Flight"
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().Create(gomock.Any(), "u1", tx).Return("42", nil)

	emitter := notify.NewEmitter(failingSink{}, log.Discard())
	svc := services.NewTransactionService(repo, services.WithEmitter(emitter), services.WithLogger(log.Discard()))

	created, err := svc.Create(context.Background(), "u1", tx)
	require.NoError(t, err)
	assert.Equal(t, "42", created.ID)
}

func TestGetDoesNotCallRepositoryForBadKind(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockRepository(ctrl)
	svc := services.NewTransactionService(repo, services.WithLogger(log.Discard()))

	_, err := svc.Get(context.Background(), "u1", "transfer", "1")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

// slowSink holds deliveries until release is closed.
type slowSink struct{ release chan struct{} }

func (s slowSink) Deliver(ctx context.Context, _ string, _ notify.Notification) error {
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestCreateDoesNotWaitForNotificationDelivery(t *testing.T) {
	sink := slowSink{release: make(chan struct{})}
	emitter := notify.NewEmitter(sink, log.Discard())
	svc := services.NewTransactionService(memory.New(), services.WithEmitter(emitter), services.WithLogger(log.Discard()))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Create(context.Background(), "u1", record("", core.Expense, 1500, "Gas", 2024, 3, 9))
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("create waited on notification delivery")
	}
	close(sink.release)
	emitter.Wait()
}

// pausingRepo reads the expense list, then holds it until release is closed,
// so a write can land between the read and its caching.
type pausingRepo struct {
	*memory.Store
	paused  chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *pausingRepo) List(ctx context.Context, userID string, kind core.Kind) ([]core.Transaction, error) {
	records, err := r.Store.List(ctx, userID, kind)
	if kind == core.Expense {
		r.once.Do(func() {
			close(r.paused)
			<-r.release
		})
	}
	return records, err
}

func TestWriteDuringFetchIsNotHiddenByCache(t *testing.T) {
	mem := memory.New().WithClock(clock)
	mem.Seed("u1", record("1", core.Expense, 5000, "Groceries", 2024, 3, 2))
	repo := &pausingRepo{Store: mem, paused: make(chan struct{}), release: make(chan struct{})}
	svc := services.NewTransactionService(repo,
		services.WithCache(cache.NewLRUCache[[]core.Transaction](10, time.Minute)),
		services.WithClock(clock),
		services.WithLogger(log.Discard()),
	)
	ctx := context.Background()

	stale := make(chan error, 1)
	go func() {
		_, err := svc.Dashboard(ctx, "u1")
		stale <- err
	}()
	<-repo.paused

	_, err := svc.Create(ctx, "u1", record("", core.Expense, 500, "Gas", 2024, 3, 10))
	require.NoError(t, err)

	close(repo.release)
	require.NoError(t, <-stale)

	d, err := svc.Dashboard(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(5500), d.TotalExpenses.Cents)
}

type failingSink struct{}

func (failingSink) Deliver(context.Context, string, notify.Notification) error {
	return errors.New("sink offline")
}
