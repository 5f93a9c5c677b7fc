package handlers

import (
	"bookmarket-api/internal/core/services"
	"bookmarket-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog endpoints
type BookHandler struct {
	bookService *services.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{
		bookService: bookService,
	}
}

// Create handles adding a book
// @Summary Add book
// @Description Add a book to the catalog. finalPrice is derived from price and discountPercentage. (ADMIN only)
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.BookInput true "Book data"
// @Success 201 {object} models.Book
// @Failure 400 {object} response.ErrorBody
// @Router /books/add [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var req services.BookInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	book, err := h.bookService.Create(c.UserContext(), &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, book)
}

// Update handles book update
// @Summary Update book
// @Description Change a book's details. Stock is managed by loans and is ignored here. (ADMIN only)
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpdateBookInput true "Book data"
// @Success 200 {object} models.Book
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /books/update [put]
func (h *BookHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateBookInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	book, err := h.bookService.Update(c.UserContext(), &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, book)
}

// GetByID returns a book
// @Summary Get book
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} models.Book
// @Failure 404 {object} response.ErrorBody
// @Router /books/{id} [get]
func (h *BookHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid book ID")
	}

	book, err := h.bookService.GetByID(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, book)
}
