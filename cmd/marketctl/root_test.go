package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/rpg-market/pkg/permissions"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMatrixCommand(t *testing.T) {
	out, err := execute(t, "matrix")
	require.NoError(t, err)

	var want bytes.Buffer
	require.NoError(t, permissions.WriteMatrix(&want))
	assert.Equal(t, want.String(), out)
}

func TestMigrateCreateAndValidate(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "migrate", "create", "Add Guild Banners", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "created migration:")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_add_guild_banners.sql"))

	out, err = execute(t, "migrate", "validate", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "(1 files)")
}

func TestMigrateValidateRejectsBadName(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "banners.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	_, err := execute(t, "migrate", "validate", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration filename")
}

func TestSeedRejectsUnknownMode(t *testing.T) {
	_, err := execute(t, "seed", "dragons")
	require.Error(t, err)
}

func TestCloseAuctionsRejectsBadBatch(t *testing.T) {
	_, err := execute(t, "close-auctions", "--batch", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--batch")
}
