package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bookmarket-api/internal/adapters/persistence/models"
	"bookmarket-api/internal/core/domain"
	"bookmarket-api/internal/core/services"
	"bookmarket-api/internal/pkg/pagination"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanService_ScenarioA_LastCopy(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, _ := e.loggedInPatron(t, "alice")
	book := e.book(t, "Dune", ptr(1))

	loan, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: book.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.LoanActive, loan.Status)
	assert.Equal(t, 0, e.stock(t, book.ID))

	_, err = e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: book.ID})
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Equal(t, 0, e.stock(t, book.ID), "a rejected create leaves stock unchanged")
}

func TestLoanService_ScenarioB_ReturnTwice(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, _ := e.loggedInPatron(t, "alice")
	book := e.book(t, "Emma", ptr(2))

	loan, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: book.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, e.stock(t, book.ID))

	require.NoError(t, e.loans.Return(ctx, loan.ID))
	assert.Equal(t, 2, e.stock(t, book.ID))

	got, err := e.loans.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanReturned, got.Status)
	require.NotNil(t, got.ReturnedAt)

	assert.ErrorIs(t, e.loans.Return(ctx, loan.ID), domain.ErrAlreadyReturned)
	assert.Equal(t, 2, e.stock(t, book.ID))

	assert.ErrorIs(t, e.loans.Return(ctx, 999), domain.ErrLoanNotFound)
}

func TestLoanService_ScenarioC_LoggedOutAccountCannotBorrow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, _ := e.loggedInPatron(t, "alice")
	book := e.book(t, "Ulysses", ptr(3))

	require.NoError(t, e.auth.Logout(ctx, domain.KindPatron, alice.ID))

	_, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: book.ID})
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
	assert.Equal(t, 3, e.stock(t, book.ID))
}

func TestLoanService_CreateChecks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	active := e.activePatron(t, "active")
	inactive := e.inactivePatron(t, "sleepy")
	book := e.book(t, "Dune", ptr(1))
	nullStock := e.book(t, "Ghost", nil)

	tests := []struct {
		name    string
		input   services.CreateLoanInput
		wantErr error
	}{
		{"unknown account", services.CreateLoanInput{AccountID: 999, BookID: book.ID}, domain.ErrAccountNotFound},
		{"inactive account is checked before the book", services.CreateLoanInput{AccountID: inactive.ID, BookID: 999}, domain.ErrAccountInactive},
		{"unknown book", services.CreateLoanInput{AccountID: active.ID, BookID: 999}, domain.ErrBookNotFound},
		{"null stock", services.CreateLoanInput{AccountID: active.ID, BookID: nullStock.ID}, domain.ErrOutOfStock},
		{"due date in the past", services.CreateLoanInput{AccountID: active.ID, BookID: book.ID, DueDate: ptr(e.clock.Now().AddDate(0, 0, -1))}, domain.ErrInvalidDueDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.loans.Create(ctx, &tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 1, e.stock(t, book.ID))
}

func (e *env) inactivePatron(t *testing.T, username string) *models.Account {
	t.Helper()
	acc := e.activePatron(t, username)
	require.NoError(t, e.db.Model(&models.Account{}).Where("id = ?", acc.ID).Update("status", domain.StatusInactive).Error)
	return acc
}

func TestLoanService_SnapshotsPricesAndDates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.activePatron(t, "alice")

	book, err := e.books.Create(ctx, &services.BookInput{
		Title: "Dune", Author: "Herbert", Genre: "SF",
		Price: decimal.RequireFromString("19.99"), DiscountPercentage: ptr(15), Stock: ptr(2),
	})
	require.NoError(t, err)

	loan, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: book.ID})
	require.NoError(t, err)
	assert.True(t, loan.Price.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, loan.FinalPrice.Equal(decimal.RequireFromString("16.99")))
	assert.Equal(t, e.clock.Now(), loan.LoanDate)
	assert.Equal(t, time.Date(2026, 3, 24, 0, 0, 0, 0, time.UTC), loan.DueDate, "default loan period is two weeks")

	_, err = e.books.Update(ctx, &services.UpdateBookInput{ID: book.ID, BookInput: services.BookInput{
		Title: "Dune", Author: "Herbert", Genre: "SF", Price: decimal.RequireFromString("50.00"),
	}})
	require.NoError(t, err)

	got, err := e.loans.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, got.FinalPrice.Equal(decimal.RequireFromString("16.99")), "catalog changes do not touch existing loans")
}

func TestLoanService_BorrowLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.activePatron(t, "alice")

	for i := 0; i < domain.DefaultBorrowLimit; i++ {
		b := e.book(t, fmt.Sprintf("Book %d", i), ptr(1))
		_, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: b.ID})
		require.NoError(t, err)
	}

	extra := e.book(t, "One too many", ptr(10))
	_, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: extra.ID})
	assert.ErrorIs(t, err, domain.ErrBorrowLimitExceeded)
	assert.Equal(t, 10, e.stock(t, extra.ID))

	n, err := e.loans.CountActiveFor(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, domain.DefaultBorrowLimit, n)

	loans, err := e.loans.Search(ctx, services.LoanFilter{AccountID: &alice.ID})
	require.NoError(t, err)
	require.NoError(t, e.loans.Return(ctx, loans[0].ID))

	_, err = e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: extra.ID})
	assert.NoError(t, err, "returning a book frees a slot")
}

func TestLoanService_ConfigurableLimit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	loans := services.NewLoanService(e.store, services.WithBorrowLimit(1), services.WithLoanClock(e.clock.Now))
	alice := e.activePatron(t, "alice")
	book := e.book(t, "Dune", ptr(5))

	_, err := loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: book.ID})
	require.NoError(t, err)
	_, err = loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: book.ID})
	assert.ErrorIs(t, err, domain.ErrBorrowLimitExceeded)
}

func TestLoanService_ConcurrentCreatesNeverOversubscribe(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	const initial, borrowers = 3, 10
	book := e.book(t, "Popular", ptr(initial))

	accounts := make([]*models.Account, borrowers)
	for i := range accounts {
		accounts[i] = e.activePatron(t, fmt.Sprintf("reader%d", i))
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		succeeded  int
		outOfStock int
		other      []error
	)
	for _, acc := range accounts {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: id, BookID: book.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrOutOfStock):
				outOfStock++
			default:
				other = append(other, err)
			}
		}(acc.ID)
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, initial, succeeded)
	assert.Equal(t, borrowers-initial, outOfStock)
	assert.Equal(t, 0, e.stock(t, book.ID))

	active, err := e.loans.CountByStatus(ctx, domain.LoanActive)
	require.NoError(t, err)
	assert.EqualValues(t, initial, active)
}

func TestLoanService_StockBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	book := e.book(t, "Balance", ptr(4))

	var ids []uint
	for i := 0; i < 4; i++ {
		acc := e.activePatron(t, fmt.Sprintf("p%d", i))
		loan, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: acc.ID, BookID: book.ID})
		require.NoError(t, err)
		ids = append(ids, loan.ID)
	}
	require.NoError(t, e.loans.Return(ctx, ids[0]))
	require.NoError(t, e.loans.Return(ctx, ids[1]))

	assert.Equal(t, 4-4+2, e.stock(t, book.ID))
}

func TestLoanService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.activePatron(t, "alice")
	book := e.book(t, "Dune", ptr(2))

	active, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: book.ID})
	require.NoError(t, err)
	returned, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: book.ID})
	require.NoError(t, err)
	require.NoError(t, e.loans.Return(ctx, returned.ID))
	assert.Equal(t, 1, e.stock(t, book.ID))

	require.NoError(t, e.loans.Delete(ctx, active.ID))
	assert.Equal(t, 2, e.stock(t, book.ID), "deleting an ACTIVE loan restores its copy")

	require.NoError(t, e.loans.Delete(ctx, returned.ID))
	assert.Equal(t, 2, e.stock(t, book.ID), "deleting a RETURNED loan leaves stock alone")

	assert.ErrorIs(t, e.loans.Delete(ctx, active.ID), domain.ErrLoanNotFound)
}

func TestLoanService_UpdateMovesStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.activePatron(t, "alice")
	bob := e.activePatron(t, "bob")
	oldBook := e.book(t, "Old", ptr(1))
	newBook := e.book(t, "New", ptr(1))
	emptyBook := e.book(t, "Empty", ptr(0))

	loan, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: oldBook.ID})
	require.NoError(t, err)

	_, err = e.loans.Update(ctx, &services.UpdateLoanInput{ID: loan.ID, AccountID: alice.ID, BookID: emptyBook.ID})
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.Equal(t, 0, e.stock(t, oldBook.ID), "failed update rolls back")

	due := time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC)
	updated, err := e.loans.Update(ctx, &services.UpdateLoanInput{ID: loan.ID, AccountID: bob.ID, BookID: newBook.ID, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, updated.AccountID)
	assert.Equal(t, newBook.ID, updated.BookID)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), updated.DueDate)
	assert.Equal(t, 1, e.stock(t, oldBook.ID))
	assert.Equal(t, 0, e.stock(t, newBook.ID))

	require.NoError(t, e.loans.Return(ctx, loan.ID))
	_, err = e.loans.Update(ctx, &services.UpdateLoanInput{ID: loan.ID, AccountID: bob.ID, BookID: oldBook.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, e.stock(t, oldBook.ID), "a returned loan's book switch touches no stock")
	assert.Equal(t, 1, e.stock(t, newBook.ID))

	_, err = e.loans.Update(ctx, &services.UpdateLoanInput{ID: 999, AccountID: bob.ID, BookID: oldBook.ID})
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestLoanService_UpdateLimitExcludesSelf(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.activePatron(t, "alice")
	bob := e.activePatron(t, "bob")
	book := e.book(t, "Stack", ptr(20))

	var last *models.Loan
	for i := 0; i < domain.DefaultBorrowLimit; i++ {
		l, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: book.ID})
		require.NoError(t, err)
		last = l
	}

	_, err := e.loans.Update(ctx, &services.UpdateLoanInput{ID: last.ID, AccountID: alice.ID, BookID: book.ID})
	assert.NoError(t, err, "a loan does not count against its own update")

	bobLoan, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: bob.ID, BookID: book.ID})
	require.NoError(t, err)
	_, err = e.loans.Update(ctx, &services.UpdateLoanInput{ID: bobLoan.ID, AccountID: alice.ID, BookID: book.ID})
	assert.ErrorIs(t, err, domain.ErrBorrowLimitExceeded)

	require.NoError(t, e.db.Model(&models.Account{}).Where("id = ?", bob.ID).Update("status", domain.StatusInactive).Error)
	_, err = e.loans.Update(ctx, &services.UpdateLoanInput{ID: last.ID, AccountID: bob.ID, BookID: book.ID})
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestLoanService_SearchAndStats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.activePatron(t, "alice")
	bob := e.activePatron(t, "bob")
	dune := e.book(t, "Dune", ptr(5))
	emma := e.book(t, "Emma", ptr(5))

	a1, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: dune.ID})
	require.NoError(t, err)
	_, err = e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: emma.ID})
	require.NoError(t, err)
	_, err = e.loans.Create(ctx, &services.CreateLoanInput{AccountID: bob.ID, BookID: dune.ID})
	require.NoError(t, err)
	require.NoError(t, e.loans.Return(ctx, a1.ID))

	byAccount, err := e.loans.Search(ctx, services.LoanFilter{AccountID: &bob.ID, BookID: &emma.ID})
	require.NoError(t, err)
	require.Len(t, byAccount, 1, "account filter wins over book filter")
	assert.Equal(t, bob.ID, byAccount[0].AccountID)

	byBook, err := e.loans.Search(ctx, services.LoanFilter{BookID: &dune.ID})
	require.NoError(t, err)
	assert.Len(t, byBook, 2)

	returned := domain.LoanReturned
	byStatus, err := e.loans.Search(ctx, services.LoanFilter{Status: &returned})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, a1.ID, byStatus[0].ID)

	all, err := e.loans.Search(ctx, services.LoanFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = e.loans.Search(ctx, services.LoanFilter{AccountID: ptr(uint(999))})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	_, err = e.loans.Search(ctx, services.LoanFilter{BookID: ptr(uint(999))})
	assert.ErrorIs(t, err, domain.ErrBookNotFound)

	stats, err := e.loans.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, services.LoanStats{ActiveLoans: 2, ReturnedLoans: 1, TotalLoans: 3}, *stats)

	page, total, err := e.loans.List(ctx, pagination.New(2, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, page, 1)
}

func TestLoanService_UpdateDueDateFollowsCreateRule(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.activePatron(t, "alice")
	book := e.book(t, "Dune", ptr(2))

	loan, err := e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: book.ID})
	require.NoError(t, err)

	// today is 2026-03-20; a date after the loan date but before today is still in the past
	e.clock.Advance(10 * 24 * time.Hour)
	past := time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
	_, err = e.loans.Update(ctx, &services.UpdateLoanInput{ID: loan.ID, AccountID: alice.ID, BookID: book.ID, DueDate: &past})
	assert.ErrorIs(t, err, domain.ErrInvalidDueDate)

	_, err = e.loans.Create(ctx, &services.CreateLoanInput{AccountID: alice.ID, BookID: book.ID, DueDate: &past})
	assert.ErrorIs(t, err, domain.ErrInvalidDueDate)

	got, err := e.loans.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 24, 0, 0, 0, 0, time.UTC), got.DueDate, "rejected update keeps the old due date")

	today := time.Date(2026, 3, 20, 18, 0, 0, 0, time.UTC)
	updated, err := e.loans.Update(ctx, &services.UpdateLoanInput{ID: loan.ID, AccountID: alice.ID, BookID: book.ID, DueDate: &today})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), updated.DueDate)

	updated, err = e.loans.Update(ctx, &services.UpdateLoanInput{ID: loan.ID, AccountID: alice.ID, BookID: book.ID})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC), updated.DueDate, "absent due date restarts the loan period")
}
