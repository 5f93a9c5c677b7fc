package repositories

import (
	"context"
	"time"

	"bookmarket-api/internal/adapters/persistence/models"
	"bookmarket-api/internal/core/domain"
)

// AccountRepository defines account repository interface
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Account, error)
	GetByUsername(ctx context.Context, kind domain.AccountKind, username string) (*models.Account, error)
	ExistsByUsername(ctx context.Context, kind domain.AccountKind, username string) (bool, error)
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id uint) error
	// TransitionStatus flips status from -> to only if the row still holds from.
	// It reports false when another writer got there first.
	TransitionStatus(ctx context.Context, id uint, from, to domain.AccountStatus) (bool, error)
	CountByKind(ctx context.Context, kind domain.AccountKind) (int64, error)
}

// BookRepository defines book repository interface
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	// TakeCopy decrements stock by one if at least one copy is available.
	TakeCopy(ctx context.Context, id uint) (bool, error)
	// RestoreCopy increments stock by one, treating a null stock as zero.
	RestoreCopy(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// LoanRepository defines loan repository interface
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) error
	Delete(ctx context.Context, id uint) error
	// MarkReturned moves an ACTIVE loan to RETURNED; false if it was not ACTIVE.
	MarkReturned(ctx context.Context, id uint, at time.Time) (bool, error)
	CountActiveByAccount(ctx context.Context, accountID uint, excludeLoanID uint) (int64, error)
	CountByStatus(ctx context.Context, status domain.LoanStatus) (int64, error)
	Count(ctx context.Context) (int64, error)
	FindByAccount(ctx context.Context, accountID uint) ([]*models.Loan, error)
	FindByBook(ctx context.Context, bookID uint) ([]*models.Loan, error)
	FindByStatus(ctx context.Context, status domain.LoanStatus) ([]*models.Loan, error)
	FindAll(ctx context.Context) ([]*models.Loan, error)
	List(ctx context.Context, offset, limit int) ([]*models.Loan, int64, error)
	FindOverdue(ctx context.Context, before time.Time) ([]*OverdueLoan, error)
}

// OverdueLoan is an ACTIVE loan joined with the names needed for a notification.
type OverdueLoan struct {
	models.Loan
	Username  string
	BookTitle string
}

// Store groups the repositories and opens transactions spanning all of them.
type Store interface {
	Accounts() AccountRepository
	Books() BookRepository
	Loans() LoanRepository
	// Transaction runs fn against a Store bound to a single transaction.
	// fn must only use the Store it is given.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
