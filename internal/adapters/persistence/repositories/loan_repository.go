package repositories

import (
	"context"
	"time"

	"bookmarket-api/internal/adapters/persistence/models"
	"bookmarket-api/internal/core/domain"

	"gorm.io/gorm"
)

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create creates a new loan
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan by ID
func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetByIDForUpdate gets a loan by ID and locks the row until the transaction ends
func (r *loanRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Update writes the reassignable fields of a loan
func (r *loanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Model(loan).
		Select("account_id", "book_id", "price", "final_price", "due_date").
		Updates(loan).Error
}

// Delete deletes a loan
func (r *loanRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Loan{}, id).Error
}

// MarkReturned is a compare-and-set from ACTIVE to RETURNED
func (r *loanRepository) MarkReturned(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status = ?", id, domain.LoanActive).
		Updates(map[string]interface{}{
			"status":      domain.LoanReturned,
			"returned_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountActiveByAccount counts ACTIVE loans held by an account, ignoring excludeLoanID when non-zero
func (r *loanRepository) CountActiveByAccount(ctx context.Context, accountID uint, excludeLoanID uint) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Loan{}).
		Where("account_id = ? AND status = ?", accountID, domain.LoanActive)
	if excludeLoanID != 0 {
		q = q.Where("id <> ?", excludeLoanID)
	}
	err := q.Count(&count).Error
	return count, err
}

// CountByStatus counts loans in a status
func (r *loanRepository) CountByStatus(ctx context.Context, status domain.LoanStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// Count counts all loans
func (r *loanRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Loan{}).Count(&count).Error
	return count, err
}

// FindByAccount lists loans of an account
func (r *loanRepository) FindByAccount(ctx context.Context, accountID uint) ([]*models.Loan, error) {
	return r.find(ctx, "account_id = ?", accountID)
}

// FindByBook lists loans of a book
func (r *loanRepository) FindByBook(ctx context.Context, bookID uint) ([]*models.Loan, error) {
	return r.find(ctx, "book_id = ?", bookID)
}

// FindByStatus lists loans in a status
func (r *loanRepository) FindByStatus(ctx context.Context, status domain.LoanStatus) ([]*models.Loan, error) {
	return r.find(ctx, "status = ?", status)
}

// FindAll lists every loan
func (r *loanRepository) FindAll(ctx context.Context) ([]*models.Loan, error) {
	var loans []*models.Loan
	if err := r.db.WithContext(ctx).Order("id").Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) find(ctx context.Context, query string, arg interface{}) ([]*models.Loan, error) {
	var loans []*models.Loan
	if err := r.db.WithContext(ctx).Where(query, arg).Order("id").Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

// List lists loans with pagination
func (r *loanRepository) List(ctx context.Context, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Loan{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&loans).Error; err != nil {
		return nil, 0, err
	}

	return loans, total, nil
}

// FindOverdue lists ACTIVE loans whose due date is strictly before the given instant
func (r *loanRepository) FindOverdue(ctx context.Context, before time.Time) ([]*OverdueLoan, error) {
	var rows []*OverdueLoan
	err := r.db.WithContext(ctx).
		Table("loans").
		Select("loans.*, accounts.username AS username, books.title AS book_title").
		Joins("LEFT JOIN accounts ON accounts.id = loans.account_id").
		Joins("LEFT JOIN books ON books.id = loans.book_id").
		Where("loans.status = ? AND loans.due_date < ?", domain.LoanActive, before).
		Order("loans.due_date").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
