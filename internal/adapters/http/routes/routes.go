package routes

import (
	"time"

	"bookmarket-api/internal/adapters/http/handlers"
	"bookmarket-api/internal/adapters/http/middleware"
	"bookmarket-api/internal/core/domain"
	"bookmarket-api/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Auth       *services.AuthService
	Loans      *services.LoanService
	Books      *services.BookService
	Statistics *services.StatisticsService
	DB         handlers.Pinger
	AppMode    string
}

// Setup configures all routes for the application
func Setup(app *fiber.App, deps Dependencies) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.AppMode)
	patronHandler := handlers.NewAccountHandler(deps.Auth, domain.KindPatron)
	librarianHandler := handlers.NewAccountHandler(deps.Auth, domain.KindLibrarian)
	loanHandler := handlers.NewLoanHandler(deps.Loans)
	bookHandler := handlers.NewBookHandler(deps.Books)
	statisticsHandler := handlers.NewStatisticsHandler(deps.Statistics)

	// Every non-public request carries a verified access token from here on
	app.Use(middleware.SessionGate(deps.Auth))

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", middleware.NoCacheHeaders(), healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", middleware.PublicCacheHeaders(time.Hour), swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAccountRoutes(apiV1.Group("/user"), patronHandler)
	setupAccountRoutes(apiV1.Group("/librarians"), librarianHandler)
	setupLoanRoutes(apiV1.Group("/loans"), loanHandler)
	setupBookRoutes(apiV1.Group("/books"), bookHandler)

	apiV1.Get("/statistics", middleware.AdminOnly(), middleware.NoCacheHeaders(), statisticsHandler.Get)
}

// setupAccountRoutes configures register/login/logout/refresh and maintenance routes
func setupAccountRoutes(router fiber.Router, handler *handlers.AccountHandler) {
	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh-token", middleware.AuthRateLimiter(), handler.RefreshToken)

	// Protected routes
	router.Post("/logout/:id", middleware.UserOrAdmin(), handler.Logout)
	router.Put("/update", middleware.UserOrAdmin(), handler.Update)
	router.Delete("/delete/:id", middleware.AdminOnly(), handler.Delete)
	router.Get("/:id<int>", middleware.UserOrAdmin(), handler.GetAccount)
}

// setupLoanRoutes configures loan routes
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	router.Use(middleware.NoCacheHeaders())

	// Patron routes
	router.Post("/add", middleware.UserOrAdmin(), handler.Create)
	router.Delete("/return/:id", middleware.UserOrAdmin(), handler.Return)
	router.Get("/search", middleware.UserOrAdmin(), handler.Search)

	// Librarian routes
	router.Get("/all", middleware.AdminOnly(), handler.List)
	router.Get("/stats", middleware.AdminOnly(), handler.Stats)
	router.Put("/update", middleware.AdminOnly(), handler.Update)
	router.Delete("/delete/:id", middleware.AdminOnly(), handler.Delete)

	router.Get("/:id<int>", middleware.UserOrAdmin(), handler.GetByID)
}

// setupBookRoutes configures catalog routes
func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler) {
	router.Post("/add", middleware.AdminOnly(), handler.Create)
	router.Put("/update", middleware.AdminOnly(), handler.Update)
	router.Get("/:id<int>", middleware.UserOrAdmin(), handler.GetByID)
}
