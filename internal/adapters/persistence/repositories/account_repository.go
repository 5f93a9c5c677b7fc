package repositories

import (
	"context"

	"bookmarket-api/internal/adapters/persistence/models"
	"bookmarket-api/internal/core/domain"

	"gorm.io/gorm"
)

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new account
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// GetByID gets an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByIDForUpdate gets an account by ID and locks the row until the transaction ends
func (r *accountRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByUsername gets an account of the given kind by username
func (r *accountRepository) GetByUsername(ctx context.Context, kind domain.AccountKind, username string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).
		Where("kind = ? AND username = ?", kind, username).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// ExistsByUsername checks if username exists for the kind
func (r *accountRepository) ExistsByUsername(ctx context.Context, kind domain.AccountKind, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("kind = ? AND username = ?", kind, username).
		Count(&count).Error
	return count > 0, err
}

// Update updates an account's mutable fields. Status goes through TransitionStatus.
func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Model(account).
		Select("username", "password", "nickname", "roles").
		Updates(account).Error
}

// Delete deletes an account
func (r *accountRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Account{}, id).Error
}

// TransitionStatus is a compare-and-set on the status column
func (r *accountRepository) TransitionStatus(ctx context.Context, id uint, from, to domain.AccountStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountByKind counts accounts of a kind
func (r *accountRepository) CountByKind(ctx context.Context, kind domain.AccountKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Account{}).Where("kind = ?", kind).Count(&count).Error
	return count, err
}
