package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/report"
	"fintrack/internal/repository"
)

// TransactionService orchestrates the repository, the record cache and the
// notification emitter, and composes dashboard and report views.
type TransactionService struct {
	repo    repository.Repository
	emitter *notify.Emitter
	cache   cache.Cache[[]core.Transaction]
	logger  *log.Logger
	events  *log.StructuredLogger
	now     func() time.Time

	// gens counts writes per user. A fetch only caches its result when no
	// write happened while it was reading.
	genMu sync.Mutex
	gens  map[string]uint64
}

// Option configures a TransactionService.
type Option func(*TransactionService)

// WithCache caches fetched record sets per user and kind.
func WithCache(c cache.Cache[[]core.Transaction]) Option {
	return func(s *TransactionService) { s.cache = c }
}

// WithEmitter enables notifications for created transactions.
func WithEmitter(e *notify.Emitter) Option {
	return func(s *TransactionService) { s.emitter = e }
}

func WithClock(now func() time.Time) Option {
	return func(s *TransactionService) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *TransactionService) { s.logger = l }
}

func NewTransactionService(repo repository.Repository, opts ...Option) *TransactionService {
	s := &TransactionService{repo: repo, now: time.Now, gens: make(map[string]uint64)}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentTransaction)
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

// List returns the user's records of one kind, filtered and sorted by opts.
func (s *TransactionService) List(ctx context.Context, userID string, kind core.Kind, opts report.ListOptions) ([]core.Transaction, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	records, err := s.fetch(ctx, userID, kind)
	if err != nil {
		return nil, err
	}
	return report.ApplyListOptions(records, opts)
}

func (s *TransactionService) Get(ctx context.Context, userID string, kind core.Kind, id string) (core.Transaction, error) {
	if err := checkUser(userID); err != nil {
		return core.Transaction{}, err
	}
	if err := kind.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t, err := s.repo.Get(ctx, userID, kind, id)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = kind
	return t, nil
}

// Create validates and stores t, then emits a notification. A notification
// failure never fails the create.
func (s *TransactionService) Create(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	if err := checkUser(userID); err != nil {
		return core.Transaction{}, err
	}
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	id, err := s.repo.Create(ctx, userID, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create %s: %w", t.Kind, err)
	}
	t.ID = id
	s.invalidate(userID)

	s.events.LogTransactionCreated(ctx, userID, string(t.Kind), id, t.Amount.Cents, t.Category)
	s.emitter.Emit(ctx, userID, t)
	return t, nil
}

func (s *TransactionService) Update(ctx context.Context, userID string, kind core.Kind, id string, p core.Patch) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if err := kind.Validate(); err != nil {
		return err
	}
	p.Description = strings.TrimSpace(p.Description)
	if err := p.Validate(kind); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, userID, kind, id, p); err != nil {
		return fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	s.invalidate(userID)
	s.logger.DebugContext(ctx, "Transaction updated",
		log.NewFields().WithUser(userID).WithTransaction(string(kind), id, p.Amount.Cents, p.Category).WithOperation(log.OpUpdate).ToSlice()...)
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, userID string, kind core.Kind, id string) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if err := kind.Validate(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, kind, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	s.invalidate(userID)
	s.logger.DebugContext(ctx, "Transaction deleted",
		log.FieldUserID, userID, log.FieldKind, string(kind), log.FieldTransactionID, id, log.FieldOperation, log.OpDelete)
	return nil
}

// Dashboard composes the dashboard view from both record sets.
func (s *TransactionService) Dashboard(ctx context.Context, userID string) (report.Dashboard, error) {
	if err := checkUser(userID); err != nil {
		return report.Dashboard{}, err
	}
	expenses, income, err := s.fetchBoth(ctx, userID)
	if err != nil {
		return report.Dashboard{}, err
	}
	return report.BuildDashboard(expenses, income, s.now()), nil
}

// Report composes the report view for the named period.
func (s *TransactionService) Report(ctx context.Context, userID string, period report.PeriodName) (report.Report, error) {
	if err := checkUser(userID); err != nil {
		return report.Report{}, err
	}
	// Reject an unknown period before touching the repository.
	if _, err := report.SelectPeriod(period, s.now()); err != nil {
		return report.Report{}, err
	}
	expenses, income, err := s.fetchBoth(ctx, userID)
	if err != nil {
		return report.Report{}, err
	}
	return report.BuildReport(expenses, income, period, s.now())
}

// Categories returns the category enumeration for kind.
func (s *TransactionService) Categories(kind core.Kind) ([]string, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	return kind.Categories(), nil
}

// fetchBoth loads expenses and income concurrently. Both must succeed; the
// first failure cancels the other fetch and is returned.
func (s *TransactionService) fetchBoth(ctx context.Context, userID string) (expenses, income []core.Transaction, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.fetch(gctx, userID, core.Expense)
		return err
	})
	g.Go(func() error {
		var err error
		income, err = s.fetch(gctx, userID, core.Income)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return expenses, income, nil
}

// fetch returns a private copy of the user's records tagged with kind.
func (s *TransactionService) fetch(ctx context.Context, userID string, kind core.Kind) ([]core.Transaction, error) {
	key := cacheKey(userID, kind)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return append([]core.Transaction(nil), cached...), nil
		}
	}

	gen := s.generation(userID)
	records, err := s.repo.List(ctx, userID, kind)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to list transactions",
			log.NewFields().WithUser(userID).WithOperation(log.OpList).WithError(err).ToSlice()...)
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	for i := range records {
		records[i].Kind = kind
	}

	if s.cache != nil {
		s.genMu.Lock()
		if s.gens[userID] == gen {
			s.cache.Set(key, append([]core.Transaction(nil), records...))
		}
		s.genMu.Unlock()
	}
	return records, nil
}

func (s *TransactionService) generation(userID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[userID]
}

// invalidate drops the user's cached records and retires any snapshot still
// being read.
func (s *TransactionService) invalidate(userID string) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	s.gens[userID]++
	if s.cache != nil {
		s.cache.DeletePrefix(userID + "|")
	}
}

func cacheKey(userID string, kind core.Kind) string {
	return userID + "|" + string(kind)
}

func checkUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: missing user id", core.ErrUnauthorized)
	}
	return nil
}
