package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_MODE", "prod")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "ctl.db"))
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("NOTIFY_WEBHOOK_URL", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	root := newRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"migrate", "create-librarian", "scan-overdue"})
}

func TestMigrateCreateLibrarianAndScan(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migration completed")

	out, err = run(t, "create-librarian", "-u", "head.librarian", "-p", "password123")
	require.NoError(t, err)
	assert.Contains(t, out, "Librarian head.librarian created")

	_, err = run(t, "create-librarian", "-u", "head.librarian", "-p", "password123")
	assert.Error(t, err)

	out, err = run(t, "scan-overdue")
	require.NoError(t, err)
	assert.Contains(t, out, "0 overdue loan(s)")
}

func TestCreateLibrarianRequiresFlags(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "create-librarian", "-u", "someone")
	assert.Error(t, err)
}
