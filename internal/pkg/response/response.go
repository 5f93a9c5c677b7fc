package response

import (
	"errors"
	"time"

	"bookmarket-api/internal/core/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// MsgUnexpected is the message returned for errors without a domain category
const MsgUnexpected = "An unexpected error occurred"

// ErrorBody represents the error payload returned by every endpoint
type ErrorBody struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Status    int               `json:"status"`
	Timestamp string            `json:"timestamp"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Message is a plain acknowledgement payload
type Message struct {
	Message string `json:"message"`
}

// Success sends a 200 response with data as the body
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(data)
}

// Created sends a 201 created response
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// NoContent sends a 204 with an empty body
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(NewErrorBody(statusCode, message))
}

// NewErrorBody builds the error payload for a status code
func NewErrorBody(statusCode int, message string) ErrorBody {
	return ErrorBody{
		Error:     StatusReason(statusCode),
		Message:   message,
		Status:    statusCode,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// StatusReason returns the reason phrase, e.g. "Not Found"
func StatusReason(statusCode int) string {
	if msg := utils.StatusMessage(statusCode); msg != "" {
		return msg
	}
	return "Error"
}

// ValidationFailed sends a 400 with per-field messages
func ValidationFailed(c *fiber.Ctx, fields map[string]string) error {
	body := NewErrorBody(fiber.StatusBadRequest, "Validation failed")
	body.Fields = fields
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// Conflict sends a 409 conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx) error {
	return Error(c, fiber.StatusInternalServerError, MsgUnexpected)
}

// StatusFor maps a domain error category to its default status code
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindConflict, domain.KindLimitExceeded:
		return fiber.StatusConflict
	case domain.KindForbidden:
		return fiber.StatusForbidden
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	case domain.KindValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// FromError renders err using its domain category. Unknown errors never leak their text.
func FromError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		return InternalServerError(c)
	}

	var de *domain.Error
	msg := err.Error()
	if errors.As(err, &de) {
		msg = de.Message
	}
	return Error(c, status, msg)
}
