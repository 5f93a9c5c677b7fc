package handlers

import (
	"strconv"
	"strings"
	"time"

	"bookmarket-api/internal/pkg/response"
	"bookmarket-api/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// msgBadBody is rendered when the body is not valid JSON
const msgBadBody = "Invalid request body"

// bind parses the JSON body into req and validates it.
// It writes the 400 response itself and reports false on failure.
func bind(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, response.BadRequest(c, msgBadBody)
	}
	if fields := validation.Struct(req); fields != nil {
		return false, response.ValidationFailed(c, fields)
	}
	return true, nil
}

// paramID reads a positive integer path parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryID reads an optional positive integer query parameter
func queryID(c *fiber.Ctx, name string) (*uint, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, false
	}
	v := uint(id)
	return &v, true
}

// parseDate accepts 2006-01-02 or RFC3339; empty means not set
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
