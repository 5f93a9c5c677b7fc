package services

import (
	"context"
	"errors"
	"log"

	"bookmarket-api/internal/adapters/persistence/models"
	"bookmarket-api/internal/adapters/persistence/repositories"
	"bookmarket-api/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookService is the thin catalog collaborator: create, update and read books.
// Stock is set at creation; afterwards only the loan service moves it.
type BookService struct {
	store repositories.Store
}

// NewBookService creates a new book service
func NewBookService(store repositories.Store) *BookService {
	return &BookService{store: store}
}

// BookInput represents book create/update input
type BookInput struct {
	Title              string          `json:"title" validate:"required,max=255"`
	Author             string          `json:"author" validate:"required,max=255"`
	Genre              string          `json:"genre" validate:"required,max=100"`
	Volume             int             `json:"volume" validate:"omitempty,min=1"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage *int            `json:"discountPercentage" validate:"omitempty,min=0,max=100"`
	Stock              *int            `json:"stock" validate:"omitempty,min=0"`
}

// UpdateBookInput represents book update input
type UpdateBookInput struct {
	ID uint `json:"id" validate:"required"`
	BookInput
}

// Create adds a book to the catalog
func (s *BookService) Create(ctx context.Context, input *BookInput) (*models.Book, error) {
	if err := validateBook(input); err != nil {
		return nil, err
	}

	book := &models.Book{
		Title:              input.Title,
		Author:             input.Author,
		Genre:              input.Genre,
		Volume:             volumeOrDefault(input.Volume),
		Price:              input.Price,
		DiscountPercentage: input.DiscountPercentage,
		Stock:              input.Stock,
	}
	book.RecomputeFinalPrice()

	if err := s.store.Books().Create(ctx, book); err != nil {
		return nil, err
	}

	log.Printf("✅ Book added: %q (id=%d, final price %s)", book.Title, book.ID, book.FinalPrice.StringFixed(2))
	return book, nil
}

// Update changes catalog fields and recomputes the final price. Stock in the input is ignored.
func (s *BookService) Update(ctx context.Context, input *UpdateBookInput) (*models.Book, error) {
	if err := validateBook(&input.BookInput); err != nil {
		return nil, err
	}

	var book *models.Book
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		current, err := tx.Books().GetByIDForUpdate(ctx, input.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBookNotFound
			}
			return err
		}

		current.Title = input.Title
		current.Author = input.Author
		current.Genre = input.Genre
		current.Volume = volumeOrDefault(input.Volume)
		current.Price = input.Price
		current.DiscountPercentage = input.DiscountPercentage
		current.RecomputeFinalPrice()

		if err := tx.Books().Update(ctx, current); err != nil {
			return err
		}
		book = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Book updated: %q (id=%d)", book.Title, book.ID)
	return book, nil
}

// GetByID gets a book by ID
func (s *BookService) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	book, err := s.store.Books().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

func validateBook(input *BookInput) error {
	if !input.Price.IsPositive() {
		return domain.ErrInvalidPrice
	}
	if d := input.DiscountPercentage; d != nil && (*d < 0 || *d > 100) {
		return domain.ErrInvalidDiscount
	}
	if input.Stock != nil && *input.Stock < 0 {
		return domain.ErrInvalidStock
	}
	return nil
}

func volumeOrDefault(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
