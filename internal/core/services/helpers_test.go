package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"bookmarket-api/internal/adapters/persistence/models"
	"bookmarket-api/internal/adapters/persistence/repositories"
	"bookmarket-api/internal/core/domain"
	"bookmarket-api/internal/core/services"
	"bookmarket-api/internal/pkg/jwt"
	"bookmarket-api/internal/pkg/password"
	"bookmarket-api/internal/testutil"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret-that-is-at-least-32-bytes!"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	db     *gorm.DB
	store  repositories.Store
	clock  *fakeClock
	tokens *jwt.Service
	auth   *services.AuthService
	loans  *services.LoanService
	books  *services.BookService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := testutil.NewDB(t)
	store := repositories.NewStore(db)
	clock := &fakeClock{now: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)}

	tokens, err := jwt.NewService(testSecret, 15*time.Minute, 7*24*time.Hour, jwt.WithClock(clock.Now))
	require.NoError(t, err)

	return &env{
		db:     db,
		store:  store,
		clock:  clock,
		tokens: tokens,
		auth:   services.NewAuthService(store, tokens, password.Bcrypt{Cost: bcrypt.MinCost}),
		loans:  services.NewLoanService(store, services.WithLoanClock(clock.Now)),
		books:  services.NewBookService(store),
	}
}

// loggedInPatron registers and logs in a patron
func (e *env) loggedInPatron(t *testing.T, username string) (*models.Account, *domain.TokenPair) {
	t.Helper()
	ctx := context.Background()

	acc, err := e.auth.Register(ctx, domain.KindPatron, &services.RegisterInput{Username: username, Password: "pw123456"})
	require.NoError(t, err)

	tokens, err := e.auth.Login(ctx, domain.KindPatron, &services.LoginInput{Username: username, Password: "pw123456"})
	require.NoError(t, err)

	return acc, tokens
}

// activePatron inserts an ACTIVE patron without going through bcrypt
func (e *env) activePatron(t *testing.T, username string) *models.Account {
	t.Helper()
	return testutil.CreateAccount(t, e.db, domain.KindPatron, username, "x", domain.StatusActive)
}

func (e *env) book(t *testing.T, title string, stock *int) *models.Book {
	t.Helper()
	return testutil.CreateBook(t, e.db, title, "10.00", stock)
}

func (e *env) stock(t *testing.T, bookID uint) int {
	t.Helper()
	s := testutil.StockOf(t, e.db, bookID)
	require.NotNil(t, s)
	return *s
}

func ptr[T any](v T) *T { return &v }
