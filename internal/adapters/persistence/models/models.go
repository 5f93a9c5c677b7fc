package models

import (
	"time"

	"bookmarket-api/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Accounts (patrons and librarians)
// ============================================================

// Account represents accounts table
type Account struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	Kind      domain.AccountKind   `gorm:"size:20;not null;uniqueIndex:idx_accounts_kind_username" json:"kind"`
	Username  string               `gorm:"size:100;not null;uniqueIndex:idx_accounts_kind_username" json:"username"`
	Password  string               `gorm:"size:255;not null" json:"-"`
	Nickname  string               `gorm:"size:100" json:"nickname,omitempty"`
	Status    domain.AccountStatus `gorm:"size:20;not null;default:'INACTIVE';index" json:"status"`
	Roles     []string             `gorm:"serializer:json;type:text;not null" json:"roles"`
	CreatedAt time.Time            `gorm:"autoCreateTime;<-:create" json:"createdAt"`
	UpdatedAt time.Time            `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Account) TableName() string {
	return "accounts"
}

// NewAccount builds an INACTIVE account seeded with the kind's default roles.
func NewAccount(kind domain.AccountKind, username, passwordHash, nickname string) *Account {
	roles := make([]string, 0, len(kind.DefaultRoles()))
	for _, r := range kind.DefaultRoles() {
		roles = append(roles, string(r))
	}
	return &Account{
		Kind:     kind,
		Username: username,
		Password: passwordHash,
		Nickname: nickname,
		Status:   domain.StatusInactive,
		Roles:    roles,
	}
}

// HasSession reports whether the account is currently logged in.
func (a *Account) HasSession() bool {
	return a.Status == domain.StatusActive
}

// AccountResponse DTO
type AccountResponse struct {
	ID        uint      `json:"id"`
	Kind      string    `json:"kind"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname,omitempty"`
	Status    string    `json:"status"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a *Account) ToResponse() *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Kind:      string(a.Kind),
		Username:  a.Username,
		Nickname:  a.Nickname,
		Status:    string(a.Status),
		Roles:     a.Roles,
		CreatedAt: a.CreatedAt,
	}
}

// ============================================================
// Catalog
// ============================================================

// Book represents books table
type Book struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Title              string          `gorm:"size:255;not null;index" json:"title"`
	Author             string          `gorm:"size:255;not null" json:"author"`
	Genre              string          `gorm:"size:100;not null" json:"genre"`
	Volume             int             `gorm:"not null;default:1" json:"volume"`
	Price              decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	DiscountPercentage *int            `json:"discountPercentage"`
	FinalPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"finalPrice"`
	Stock              *int            `json:"stock"`
	CreatedAt          time.Time       `gorm:"autoCreateTime;<-:create" json:"createdAt"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Book) TableName() string {
	return "books"
}

// RecomputeFinalPrice must be called whenever Price or DiscountPercentage changes.
func (b *Book) RecomputeFinalPrice() {
	b.FinalPrice = domain.FinalPrice(b.Price, b.DiscountPercentage)
}

// Available returns the number of copies that can be lent; a nil stock counts as zero.
func (b *Book) Available() int {
	if b.Stock == nil || *b.Stock < 0 {
		return 0
	}
	return *b.Stock
}

// ============================================================
// Loans
// ============================================================

// Loan represents loans table. AccountID and BookID are plain identifiers.
type Loan struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	AccountID  uint              `gorm:"index;not null" json:"userId"`
	BookID     uint              `gorm:"index;not null" json:"bookId"`
	Price      decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"price"`
	FinalPrice decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"finalPrice"`
	LoanDate   time.Time         `gorm:"not null;<-:create" json:"loanDate"`
	DueDate    time.Time         `gorm:"not null;index" json:"dueDate"`
	Status     domain.LoanStatus `gorm:"size:20;not null;default:'ACTIVE';index" json:"status"`
	ReturnedAt *time.Time        `json:"returnedAt,omitempty"`
	CreatedAt  time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Loan) TableName() string {
	return "loans"
}

// IsActive reports whether the book has not been returned yet
func (l *Loan) IsActive() bool {
	return l.Status == domain.LoanActive
}

// SnapshotPrices copies the book's current economics onto the loan.
func (l *Loan) SnapshotPrices(b *Book) {
	l.Price = b.Price
	l.FinalPrice = b.FinalPrice
}

// AutoMigrate runs migrations for all tables owned by this service
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Account{},
		&Book{},
		&Loan{},
	)
}
