package handlers

import (
	"strings"

	"bookmarket-api/internal/adapters/http/middleware"
	"bookmarket-api/internal/adapters/persistence/models"
	"bookmarket-api/internal/core/domain"
	"bookmarket-api/internal/core/services"
	"bookmarket-api/internal/pkg/pagination"
	"bookmarket-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles loan endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
	}
}

// CreateLoanRequest is the body of POST /loans/add
type CreateLoanRequest struct {
	UserID  uint   `json:"userId" validate:"required"`
	BookID  uint   `json:"bookId" validate:"required"`
	DueDate string `json:"dueDate"`
}

// UpdateLoanRequest is the body of PUT /loans/update
type UpdateLoanRequest struct {
	ID      uint   `json:"id" validate:"required"`
	UserID  uint   `json:"userId" validate:"required"`
	BookID  uint   `json:"bookId" validate:"required"`
	DueDate string `json:"dueDate"`
}

// Create handles loan creation
// @Summary Borrow a book
// @Description Take one copy off the shelf and record an ACTIVE loan. dueDate defaults to the loan period.
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateLoanRequest true "Loan data"
// @Success 201 {object} models.Loan
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /loans/add [post]
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var req CreateLoanRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	identity := middleware.CurrentIdentity(c)
	if !ownsAccount(identity, req.UserID) {
		return response.Forbidden(c, "You can only borrow for your own account")
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return response.ValidationFailed(c, map[string]string{"dueDate": "must be a date (YYYY-MM-DD)"})
	}

	loan, err := h.loanService.Create(c.UserContext(), &services.CreateLoanInput{
		AccountID: req.UserID,
		BookID:    req.BookID,
		DueDate:   dueDate,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, loan)
}

// Return handles returning a book
// @Summary Return a book
// @Description Mark an ACTIVE loan RETURNED and put the copy back on the shelf
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 204
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /loans/return/{id} [delete]
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.GetByID(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	if !ownsAccount(middleware.CurrentIdentity(c), loan.AccountID) {
		return response.Forbidden(c, "You can only return your own loans")
	}

	if err := h.loanService.Return(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}

	return response.NoContent(c)
}

// Search handles loan search
// @Summary Search loans
// @Description Filter by userId, bookId or status. The first filter given wins; none returns every loan.
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param userId query int false "Account ID"
// @Param bookId query int false "Book ID"
// @Param status query string false "ACTIVE or RETURNED"
// @Success 200 {array} models.Loan
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /loans/search [get]
func (h *LoanHandler) Search(c *fiber.Ctx) error {
	var filter services.LoanFilter
	var ok bool

	if filter.AccountID, ok = queryID(c, "userId"); !ok {
		return response.BadRequest(c, "Invalid userId")
	}
	if filter.BookID, ok = queryID(c, "bookId"); !ok {
		return response.BadRequest(c, "Invalid bookId")
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domain.LoanStatus(strings.ToUpper(raw))
		if !status.Valid() {
			return response.BadRequest(c, "Invalid status")
		}
		filter.Status = &status
	}

	loans, err := h.loanService.Search(c.UserContext(), filter)
	if err != nil {
		return response.FromError(c, err)
	}
	if loans == nil {
		loans = []*models.Loan{}
	}

	return response.Success(c, loans)
}

// GetByID returns a loan
// @Summary Get loan
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} models.Loan
// @Failure 404 {object} response.ErrorBody
// @Router /loans/{id} [get]
func (h *LoanHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.GetByID(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, loan)
}

// List returns a page of loans
// @Summary List loans
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} pagination.Response
// @Router /loans/all [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	loans, total, err := h.loanService.List(c.UserContext(), params)
	if err != nil {
		return response.FromError(c, err)
	}
	if loans == nil {
		loans = []*models.Loan{}
	}

	return response.Success(c, pagination.NewResponse(loans, params, total))
}

// Update handles loan update
// @Summary Update loan
// @Description Reassign account, book or due date. Prices are re-snapshotted from the book. (ADMIN only)
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateLoanRequest true "Loan data"
// @Success 200 {object} models.Loan
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /loans/update [put]
func (h *LoanHandler) Update(c *fiber.Ctx) error {
	var req UpdateLoanRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return response.ValidationFailed(c, map[string]string{"dueDate": "must be a date (YYYY-MM-DD)"})
	}

	loan, err := h.loanService.Update(c.UserContext(), &services.UpdateLoanInput{
		ID:        req.ID,
		AccountID: req.UserID,
		BookID:    req.BookID,
		DueDate:   dueDate,
	})
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, loan)
}

// Delete handles loan deletion
// @Summary Delete loan
// @Description Remove a loan record. Deleting an ACTIVE loan puts the copy back. (ADMIN only)
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 204
// @Failure 404 {object} response.ErrorBody
// @Router /loans/delete/{id} [delete]
func (h *LoanHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid loan ID")
	}

	if err := h.loanService.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err)
	}

	return response.NoContent(c)
}

// Stats returns loan counts by status
// @Summary Loan statistics
// @Tags Loans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.LoanStats
// @Router /loans/stats [get]
func (h *LoanHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.loanService.Stats(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, stats)
}

// ownsAccount allows admins everything and patrons only their own account
func ownsAccount(identity *services.Identity, accountID uint) bool {
	if identity == nil {
		return false
	}
	if identity.HasRole(domain.RoleAdmin) {
		return true
	}
	return identity.Kind == domain.KindPatron && identity.AccountID == accountID
}
