package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/habedi/rentdesk/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRootCmd(t *testing.T) {
	root := createRootCmd()
	assert.Equal(t, "rentdesk", root.Use)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{
		"login", "logout", "status", "register", "apartments", "tenants", "payments",
		"documents", "notifications", "dashboard", "report", "version",
	}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestExecute_ExitStatus(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"success", []string{"version", "--short"}, 0},
		{"unknown flag", []string{"version", "--bogus"}, 2},
		{"unknown command", []string{"evict"}, 2},
		{"missing argument", []string{"apartments", "show"}, 2},
		{"reported failure", []string{"apartments", "show", "zero"}, 2},
		{"not logged in", []string{"apartments", "list"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearSession(t)
			root := createRootCmd()
			root.SetOut(new(bytes.Buffer))
			root.SetErr(new(bytes.Buffer))
			assert.Equal(t, tt.want, execute(root, tt.args))
		})
	}
}

func TestInitializeAndCloseDatabase(t *testing.T) {
	oldPath := db.Path
	t.Cleanup(func() {
		db.Path = oldPath
		initializeDatabase()
	})

	db.Path = filepath.Join(t.TempDir(), "state", "rentdesk.db")
	initializeDatabase()
	require.FileExists(t, db.Path)
	closeDatabase()
}
