package app

import (
	"fmt"

	"bookmarket-api/internal/adapters/http/middleware"
	"bookmarket-api/internal/adapters/http/routes"
	"bookmarket-api/internal/adapters/persistence/repositories"
	"bookmarket-api/internal/config"
	"bookmarket-api/internal/core/services"
	"bookmarket-api/internal/pkg/jwt"
	"bookmarket-api/internal/pkg/password"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Name is the Fiber application name
const Name = "Bookmarket API v1.0"

// Services is the wired service graph shared by the server and the CLI
type Services struct {
	Store      repositories.Store
	Tokens     *jwt.Service
	Auth       *services.AuthService
	Loans      *services.LoanService
	Books      *services.BookService
	Statistics *services.StatisticsService
	Overdue    *services.OverdueScanner
}

// NewServices builds every service on top of db
func NewServices(cfg *config.Config, db *gorm.DB) (*Services, error) {
	store := repositories.NewStore(db)

	tokens, err := jwt.NewService(cfg.JWT.Secret, cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	return &Services{
		Store:  store,
		Tokens: tokens,
		Auth:   services.NewAuthService(store, tokens, password.NewBcrypt()),
		Loans: services.NewLoanService(store,
			services.WithBorrowLimit(cfg.Loans.BorrowLimit),
			services.WithLoanPeriod(cfg.Loans.PeriodDays),
		),
		Books:      services.NewBookService(store),
		Statistics: services.NewStatisticsService(store),
		Overdue:    services.NewOverdueScanner(store.Loans(), services.NewNotificationSink(cfg.Notify.WebhookURL), nil),
	}, nil
}

// NewServer creates the Fiber app with middlewares and routes installed
func NewServer(cfg *config.Config, svc *Services) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      Name,
		ErrorHandler: middleware.CustomErrorHandler,
	})

	middleware.Setup(app, cfg)

	routes.Setup(app, routes.Dependencies{
		Auth:       svc.Auth,
		Loans:      svc.Loans,
		Books:      svc.Books,
		Statistics: svc.Statistics,
		DB:         svc.Store,
		AppMode:    cfg.AppMode,
	})

	return app
}
