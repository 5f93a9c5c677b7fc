// Package testutil holds fixtures shared by the storage-backed tests.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"bookmarket-api/internal/adapters/persistence/models"
	"bookmarket-api/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated SQLite database in a per-test temp dir.
// A single connection serialises writers the same way row locks do on MySQL.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", filepath.Join(t.TempDir(), "bookmarket.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// CreateBook inserts a book with the given price and stock (nil stock allowed).
func CreateBook(t testing.TB, db *gorm.DB, title, price string, stock *int) *models.Book {
	t.Helper()

	book := &models.Book{
		Title:  title,
		Author: "Anon",
		Genre:  "Fiction",
		Volume: 1,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
	}
	book.RecomputeFinalPrice()
	require.NoError(t, db.WithContext(context.Background()).Create(book).Error)
	return book
}

// CreateAccount inserts an account directly with the given status; the password
// column holds whatever hash the caller passes.
func CreateAccount(t testing.TB, db *gorm.DB, kind domain.AccountKind, username, hash string, status domain.AccountStatus) *models.Account {
	t.Helper()

	account := models.NewAccount(kind, username, hash, "")
	account.Status = status
	require.NoError(t, db.WithContext(context.Background()).Create(account).Error)
	return account
}

// Int returns a pointer to v
func Int(v int) *int { return &v }

// StockOf reloads a book's stock
func StockOf(t testing.TB, db *gorm.DB, bookID uint) *int {
	t.Helper()

	var book models.Book
	require.NoError(t, db.First(&book, bookID).Error)
	return book.Stock
}
