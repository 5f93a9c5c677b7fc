package services

import (
	"context"
	"errors"
	"log"
	"time"

	"bookmarket-api/internal/adapters/persistence/models"
	"bookmarket-api/internal/adapters/persistence/repositories"
	"bookmarket-api/internal/core/domain"
	"bookmarket-api/internal/pkg/pagination"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// DefaultLoanPeriodDays is used when a loan is created without a due date
const DefaultLoanPeriodDays = 14

// LoanService issues, returns, reassigns and erases loans. Every mutation runs
// in one transaction so book stock and loan rows never diverge.
type LoanService struct {
	store       repositories.Store
	borrowLimit int
	periodDays  int
	now         func() time.Time
	tracer      trace.Tracer
	transitions metric.Int64Counter
}

// LoanOption configures a LoanService
type LoanOption func(*LoanService)

// WithBorrowLimit sets the maximum number of ACTIVE loans per account
func WithBorrowLimit(n int) LoanOption {
	return func(s *LoanService) {
		if n > 0 {
			s.borrowLimit = n
		}
	}
}

// WithLoanPeriod sets the default loan length in days
func WithLoanPeriod(days int) LoanOption {
	return func(s *LoanService) {
		if days > 0 {
			s.periodDays = days
		}
	}
}

// WithLoanClock overrides the clock used for loan dates
func WithLoanClock(now func() time.Time) LoanOption {
	return func(s *LoanService) { s.now = now }
}

// NewLoanService creates a new loan service
func NewLoanService(store repositories.Store, opts ...LoanOption) *LoanService {
	s := &LoanService{
		store:       store,
		borrowLimit: domain.DefaultBorrowLimit,
		periodDays:  DefaultLoanPeriodDays,
		now:         func() time.Time { return time.Now().UTC() },
		tracer:      otel.Tracer("bookmarket-api/loans"),
	}
	for _, opt := range opts {
		opt(s)
	}

	counter, err := otel.Meter("bookmarket-api/loans").Int64Counter(
		"loans.transitions",
		metric.WithDescription("Loan state changes by operation"),
	)
	if err != nil {
		log.Printf("⚠️ Loan metrics disabled: %v", err)
		counter, _ = noop.NewMeterProvider().Meter("").Int64Counter("loans.transitions")
	}
	s.transitions = counter

	return s
}

// CreateLoanInput represents loan creation input
type CreateLoanInput struct {
	AccountID uint
	BookID    uint
	DueDate   *time.Time
}

// UpdateLoanInput represents loan update input
type UpdateLoanInput struct {
	ID        uint
	AccountID uint
	BookID    uint
	DueDate   *time.Time
}

// LoanFilter selects loans for Search; the first non-nil field wins
type LoanFilter struct {
	AccountID *uint
	BookID    *uint
	Status    *domain.LoanStatus
}

// LoanStats is the loan count breakdown
type LoanStats struct {
	ActiveLoans   int64 `json:"activeLoans"`
	ReturnedLoans int64 `json:"returnedLoans"`
	TotalLoans    int64 `json:"totalLoans"`
}

// Create issues a loan: one copy leaves the shelf and an ACTIVE loan is recorded
func (s *LoanService) Create(ctx context.Context, input *CreateLoanInput) (loan *models.Loan, err error) {
	ctx, span := s.tracer.Start(ctx, "loans.create", trace.WithAttributes(
		attribute.Int64("account.id", int64(input.AccountID)),
		attribute.Int64("book.id", int64(input.BookID)),
	))
	defer func() { endSpan(span, err) }()

	now := s.now()
	due, err := s.resolveDueDate(input.DueDate, now)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		// 1. Account must exist and hold a session; the row lock serialises limit checks per account
		if _, err := s.lockEligibleAccount(ctx, tx, input.AccountID); err != nil {
			return err
		}

		// 2. Book must exist
		book, err := s.getBook(ctx, tx, input.BookID)
		if err != nil {
			return err
		}

		// 3. Borrow limit
		if err := s.checkBorrowLimit(ctx, tx, input.AccountID, 0); err != nil {
			return err
		}

		// 4. Take a copy; the conditional decrement is the stock guard
		if err := s.takeCopy(ctx, tx, book.ID); err != nil {
			return err
		}

		// 5. Record the loan with the book's current economics
		loan = &models.Loan{
			AccountID: input.AccountID,
			BookID:    book.ID,
			LoanDate:  now,
			DueDate:   due,
			Status:    domain.LoanActive,
		}
		loan.SnapshotPrices(book)
		return tx.Loans().Create(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("loan.id", int64(loan.ID)))
	s.count(ctx, "create")
	log.Printf("📚 Loan created: id=%d account=%d book=%d due=%s", loan.ID, loan.AccountID, loan.BookID, loan.DueDate.Format("2006-01-02"))
	return loan, nil
}

// Update reassigns a loan's account, book and due date and re-snapshots prices.
// Switching the book of an ACTIVE loan moves one copy from the new book back to the old one.
func (s *LoanService) Update(ctx context.Context, input *UpdateLoanInput) (loan *models.Loan, err error) {
	ctx, span := s.tracer.Start(ctx, "loans.update", trace.WithAttributes(
		attribute.Int64("loan.id", int64(input.ID)),
		attribute.Int64("account.id", int64(input.AccountID)),
		attribute.Int64("book.id", int64(input.BookID)),
	))
	defer func() { endSpan(span, err) }()

	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		// 1. Loan must exist
		current, err := s.getLoanForUpdate(ctx, tx, input.ID)
		if err != nil {
			return err
		}

		// 2. Same eligibility checks as create, against the new account
		if _, err := s.lockEligibleAccount(ctx, tx, input.AccountID); err != nil {
			return err
		}
		book, err := s.getBook(ctx, tx, input.BookID)
		if err != nil {
			return err
		}
		if err := s.checkBorrowLimit(ctx, tx, input.AccountID, current.ID); err != nil {
			return err
		}

		// 3. Move stock when an outstanding loan changes book
		if current.IsActive() && current.BookID != book.ID {
			if err := s.takeCopy(ctx, tx, book.ID); err != nil {
				return err
			}
			if err := tx.Books().RestoreCopy(ctx, current.BookID); err != nil {
				return err
			}
		}

		// 4. Same due date rule as create: today or later, default loan period when absent
		due, err := s.resolveDueDate(input.DueDate, s.now())
		if err != nil {
			return err
		}
		current.DueDate = due

		current.AccountID = input.AccountID
		current.BookID = book.ID
		current.SnapshotPrices(book)
		if err := tx.Loans().Update(ctx, current); err != nil {
			return err
		}
		loan = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.count(ctx, "update")
	log.Printf("✏️ Loan updated: id=%d account=%d book=%d", loan.ID, loan.AccountID, loan.BookID)
	return loan, nil
}

// Return marks an ACTIVE loan RETURNED and puts the copy back on the shelf
func (s *LoanService) Return(ctx context.Context, id uint) (err error) {
	ctx, span := s.tracer.Start(ctx, "loans.return", trace.WithAttributes(
		attribute.Int64("loan.id", int64(id)),
	))
	defer func() { endSpan(span, err) }()

	var bookID uint
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		loan, err := s.getLoanForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !loan.IsActive() {
			return domain.ErrAlreadyReturned
		}

		ok, err := tx.Loans().MarkReturned(ctx, id, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyReturned
		}

		bookID = loan.BookID
		return tx.Books().RestoreCopy(ctx, loan.BookID)
	})
	if err != nil {
		return err
	}

	s.count(ctx, "return")
	log.Printf("📗 Loan returned: id=%d book=%d", id, bookID)
	return nil
}

// Delete erases a loan, restoring stock first if it was still ACTIVE
func (s *LoanService) Delete(ctx context.Context, id uint) (err error) {
	ctx, span := s.tracer.Start(ctx, "loans.delete", trace.WithAttributes(
		attribute.Int64("loan.id", int64(id)),
	))
	defer func() { endSpan(span, err) }()

	var restored bool
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		loan, err := s.getLoanForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		if loan.IsActive() {
			if err := tx.Books().RestoreCopy(ctx, loan.BookID); err != nil {
				return err
			}
			restored = true
		}

		return tx.Loans().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.count(ctx, "delete")
	log.Printf("🗑️ Loan deleted: id=%d (stock restored: %t)", id, restored)
	return nil
}

// GetByID gets a loan by ID
func (s *LoanService) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.store.Loans().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// List lists loans page by page
func (s *LoanService) List(ctx context.Context, params *pagination.Params) ([]*models.Loan, int64, error) {
	return s.store.Loans().List(ctx, params.Offset, params.Limit)
}

// CountActiveFor counts the ACTIVE loans an account holds
func (s *LoanService) CountActiveFor(ctx context.Context, accountID uint) (int64, error) {
	if _, err := s.getPatron(ctx, s.store, accountID); err != nil {
		return 0, err
	}
	return s.store.Loans().CountActiveByAccount(ctx, accountID, 0)
}

// CountByStatus counts loans in a status
func (s *LoanService) CountByStatus(ctx context.Context, status domain.LoanStatus) (int64, error) {
	return s.store.Loans().CountByStatus(ctx, status)
}

// Stats returns active, returned and total loan counts
func (s *LoanService) Stats(ctx context.Context) (*LoanStats, error) {
	active, err := s.CountByStatus(ctx, domain.LoanActive)
	if err != nil {
		return nil, err
	}
	returned, err := s.CountByStatus(ctx, domain.LoanReturned)
	if err != nil {
		return nil, err
	}
	return &LoanStats{
		ActiveLoans:   active,
		ReturnedLoans: returned,
		TotalLoans:    active + returned,
	}, nil
}

// Search returns loans matching the first set filter, or every loan when none is set.
// Filtering by an unknown account or book fails with the matching not-found error.
func (s *LoanService) Search(ctx context.Context, filter LoanFilter) ([]*models.Loan, error) {
	switch {
	case filter.AccountID != nil:
		if _, err := s.getPatron(ctx, s.store, *filter.AccountID); err != nil {
			return nil, err
		}
		return s.store.Loans().FindByAccount(ctx, *filter.AccountID)
	case filter.BookID != nil:
		if _, err := s.getBook(ctx, s.store, *filter.BookID); err != nil {
			return nil, err
		}
		return s.store.Loans().FindByBook(ctx, *filter.BookID)
	case filter.Status != nil:
		if !filter.Status.Valid() {
			return nil, domain.ErrInvalidInput
		}
		return s.store.Loans().FindByStatus(ctx, *filter.Status)
	default:
		return s.store.Loans().FindAll(ctx)
	}
}

// ============================================================
// Private helpers
// ============================================================

func (s *LoanService) resolveDueDate(requested *time.Time, now time.Time) (time.Time, error) {
	today := domain.StartOfDay(now.UTC())
	if requested == nil {
		return today.AddDate(0, 0, s.periodDays), nil
	}
	due := domain.StartOfDay(requested.UTC())
	if due.Before(today) {
		return time.Time{}, domain.ErrInvalidDueDate
	}
	return due, nil
}

func (s *LoanService) lockEligibleAccount(ctx context.Context, tx repositories.Store, id uint) (*models.Account, error) {
	account, err := tx.Accounts().GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	if account.Kind != domain.KindPatron {
		return nil, domain.ErrAccountNotFound
	}
	if !account.HasSession() {
		return nil, domain.ErrAccountInactive
	}
	return account, nil
}

func (s *LoanService) getPatron(ctx context.Context, store repositories.Store, id uint) (*models.Account, error) {
	account, err := store.Accounts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	if account.Kind != domain.KindPatron {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (s *LoanService) getBook(ctx context.Context, store repositories.Store, id uint) (*models.Book, error) {
	book, err := store.Books().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

func (s *LoanService) getLoanForUpdate(ctx context.Context, tx repositories.Store, id uint) (*models.Loan, error) {
	loan, err := tx.Loans().GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

func (s *LoanService) checkBorrowLimit(ctx context.Context, tx repositories.Store, accountID, excludeLoanID uint) error {
	active, err := tx.Loans().CountActiveByAccount(ctx, accountID, excludeLoanID)
	if err != nil {
		return err
	}
	if active >= int64(s.borrowLimit) {
		return domain.ErrBorrowLimitExceeded
	}
	return nil
}

func (s *LoanService) takeCopy(ctx context.Context, tx repositories.Store, bookID uint) error {
	ok, err := tx.Books().TakeCopy(ctx, bookID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrOutOfStock
	}
	return nil
}

func (s *LoanService) count(ctx context.Context, op string) {
	s.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
