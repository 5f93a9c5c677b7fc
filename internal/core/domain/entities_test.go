package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccountKind_DefaultRoles(t *testing.T) {
	assert.Equal(t, []Role{RoleUser}, KindPatron.DefaultRoles())
	assert.Equal(t, []Role{RoleAdmin}, KindLibrarian.DefaultRoles())
	assert.True(t, KindPatron.Valid())
	assert.False(t, AccountKind("GUEST").Valid())
}

func TestDaysBetween(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(due, due.Add(23*time.Hour)))
	assert.Equal(t, 1, DaysBetween(due, due.Add(24*time.Hour)))
	assert.Equal(t, 31, DaysBetween(due, time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)))
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("create loan: %w", ErrOutOfStock)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, ErrOutOfStock))
	assert.Equal(t, KindNotFound, KindOf(ErrLoanNotFound))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
}
