package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_RequiresStrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := FromEnv()
	assert.ErrorIs(t, err, ErrJWTSecret)

	t.Setenv("JWT_SECRET", strings.Repeat("a", 31))
	_, err = FromEnv()
	assert.ErrorIs(t, err, ErrJWTSecret)
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("a", 32))
	t.Setenv("APP_MODE", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("BORROW_LIMIT", "")
	t.Setenv("ACCESS_TOKEN_MINUTES", "")
	t.Setenv("REFRESH_TOKEN_DAYS", "")
	t.Setenv("OVERDUE_SCAN_SCHEDULE", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Loans.BorrowLimit)
	assert.Equal(t, "@every 24h", cfg.Loans.OverdueSchedule)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("a", 40))
	t.Setenv("APP_MODE", "prod")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("PROD_DB_HOST", "db.internal")
	t.Setenv("PROD_DB_PORT", "")
	t.Setenv("BORROW_LIMIT", "3")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProd())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 3, cfg.Loans.BorrowLimit)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("a", 32))

	t.Setenv("APP_MODE", "staging")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("APP_MODE", "dev")
	t.Setenv("DB_DRIVER", "oracle")
	_, err = FromEnv()
	assert.Error(t, err)
}
