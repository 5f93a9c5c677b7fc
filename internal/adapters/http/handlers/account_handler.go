package handlers

import (
	"errors"
	"strings"

	"bookmarket-api/internal/adapters/http/middleware"
	"bookmarket-api/internal/core/domain"
	"bookmarket-api/internal/core/services"
	"bookmarket-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AccountHandler serves register/login/logout/refresh and maintenance for one account kind.
// Patrons are mounted under /user and librarians under /librarians.
type AccountHandler struct {
	authService *services.AuthService
	kind        domain.AccountKind
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(authService *services.AuthService, kind domain.AccountKind) *AccountHandler {
	return &AccountHandler{
		authService: authService,
		kind:        kind,
	}
}

// Register handles account registration
// @Summary Register account
// @Description Register a new account. It starts logged out.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Registration data"
// @Success 201 {object} models.AccountResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /user/register [post]
// @Router /librarians/register [post]
func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	req.Username = strings.TrimSpace(req.Username)

	account, err := h.authService.Register(c.UserContext(), h.kind, &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Created(c, account.ToResponse())
}

// Login handles login
// @Summary Login
// @Description Authenticate and receive an access/refresh token pair. A second login before logout is rejected.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param body body services.LoginInput true "Login credentials"
// @Success 200 {object} domain.TokenPair
// @Failure 400 {object} response.ErrorBody
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /user/login [post]
// @Router /librarians/login [post]
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req services.LoginInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	req.Username = strings.TrimSpace(req.Username)

	tokens, err := h.authService.Login(c.UserContext(), h.kind, &req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBadCredential):
			return response.Unauthorized(c, "Invalid username or password")
		case errors.Is(err, domain.ErrAlreadyActive):
			return response.Unauthorized(c, "Account is already logged in")
		default:
			return response.FromError(c, err)
		}
	}

	tokens.Message = "Login successful"
	return response.Success(c, tokens)
}

// Logout handles logout
// @Summary Logout
// @Description Mark the account logged out. Issued access tokens stay valid until they expire.
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 204
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /user/logout/{id} [post]
// @Router /librarians/logout/{id} [post]
func (h *AccountHandler) Logout(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid account ID")
	}
	if !h.isSelfOrAdmin(c, id) {
		return response.Forbidden(c, "You can only log out your own account")
	}

	if err := h.authService.Logout(c.UserContext(), h.kind, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyInactive):
			return response.NotFound(c, "Account is already logged out")
		default:
			return response.FromError(c, err)
		}
	}

	return response.NoContent(c)
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Exchange a refresh token for a new access token. The refresh token is returned unchanged.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param body body services.RefreshInput true "Refresh token"
// @Success 200 {object} domain.TokenPair
// @Failure 401 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Router /user/refresh-token [post]
// @Router /librarians/refresh-token [post]
func (h *AccountHandler) RefreshToken(c *fiber.Ctx) error {
	var req services.RefreshInput
	if ok, err := bind(c, &req); !ok {
		return err
	}

	tokens, err := h.authService.Refresh(c.UserContext(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, tokens)
}

// GetAccount returns one account
// @Summary Get account
// @Description Only the owner or an ADMIN may read an account
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} models.AccountResponse
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /user/{id} [get]
// @Router /librarians/{id} [get]
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid account ID")
	}
	if !h.isSelfOrAdmin(c, id) {
		return response.Forbidden(c, "You can only view your own account")
	}

	account, err := h.authService.GetByID(c.UserContext(), h.kind, id)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, account.ToResponse())
}

// Update handles account update
// @Summary Update account
// @Description Change username, password or nickname. Only the owner or an ADMIN may update.
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpdateAccountInput true "Fields to change"
// @Success 200 {object} models.AccountResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 403 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /user/update [put]
// @Router /librarians/update [put]
func (h *AccountHandler) Update(c *fiber.Ctx) error {
	var req services.UpdateAccountInput
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if !h.isSelfOrAdmin(c, req.ID) {
		return response.Forbidden(c, "You can only update your own account")
	}
	req.Username = strings.TrimSpace(req.Username)

	account, err := h.authService.Update(c.UserContext(), h.kind, &req)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, account.ToResponse())
}

// Delete handles account deletion
// @Summary Delete account
// @Description Delete an account that holds no active loans (ADMIN only)
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 204
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /user/delete/{id} [delete]
// @Router /librarians/delete/{id} [delete]
func (h *AccountHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid account ID")
	}

	if err := h.authService.Delete(c.UserContext(), h.kind, id); err != nil {
		return response.FromError(c, err)
	}

	return response.NoContent(c)
}

func (h *AccountHandler) isSelfOrAdmin(c *fiber.Ctx, id uint) bool {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		return false
	}
	if identity.HasRole(domain.RoleAdmin) {
		return true
	}
	return identity.Kind == h.kind && identity.AccountID == id
}
