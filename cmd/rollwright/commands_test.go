package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaanHessen/rollwright/internal/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ROLLWRIGHT_SEED", "")
	t.Setenv("LOG_LEVEL", "error")
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "rollwright "+version+"\n", out)
}

func TestRollIsReproducibleWithSeed(t *testing.T) {
	first, err := run(t, "--seed", "table-7", "roll", "4d6kh3", "-n", "3")
	require.NoError(t, err)
	second, err := run(t, "--seed", "table-7", "roll", "4d6kh3", "-n", "3")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 6, strings.Count(first, "\n"))
	// plain output for non terminals
	assert.NotContains(t, first, "\x1b[")
}

func TestRollJoinsArguments(t *testing.T) {
	out, err := run(t, "--seed", "s", "roll", "2", "+", "3")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "2+3 = 5\n"), out)
}

func TestRollErrors(t *testing.T) {
	_, err := run(t, "roll", "1d0")
	assert.Error(t, err)
	_, err = run(t, "roll", "d6", "--times", "0")
	assert.Error(t, err)
	_, err = run(t, "roll")
	assert.Error(t, err)
}

func TestDist(t *testing.T) {
	out, err := run(t, "dist", "2d6", "--target", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "mean 7.00")
	assert.Contains(t, out, "P(result >= 10) = 16.67%")
	assert.Contains(t, out, "12 |")
	assert.NotContains(t, out, "not shown")
}

func TestFunctionsPrintsMarkdown(t *testing.T) {
	out, err := run(t, "functions")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Functions"))
}

func TestStoreCommandsNeedDSN(t *testing.T) {
	for _, args := range [][]string{
		{"history"},
		{"preset", "list"},
		{"preset", "save", "x", "d6"},
		{"preset", "delete", "x"},
	} {
		_, err := run(t, args...)
		assert.ErrorIs(t, err, store.ErrNoDSN, args)
	}
}

func TestMigrateValidatesAction(t *testing.T) {
	_, err := run(t, "migrate", "sideways")
	assert.Error(t, err)
	_, err = run(t, "migrate", "up")
	assert.Error(t, err)
}

func TestInvalidConfigIsRejected(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "version")
	assert.Error(t, err)
}
