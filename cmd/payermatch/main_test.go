package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/payermatch/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// setupLogger replaces the default logger
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"payermatch"}, args...))
	return out.String(), err
}

func TestMatchCommand(t *testing.T) {
	users := writeFile(t, "users.csv", "id,name\nu1,John Smith\nu2,Jane Doe\nu3,NA\n")

	out, err := run(t, "match", "--users", users, "From John Smith for Deel")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Contains(t, lines[0], "SCORE")
	assert.Contains(t, lines[1], "u1")
	assert.Contains(t, lines[1], "100.0")
}

func TestMatchCommand_Errors(t *testing.T) {
	users := writeFile(t, "users.csv", "id,name\nu1,John Smith\n")

	t.Run("users flag is required", func(t *testing.T) {
		_, err := run(t, "match", "From John Smith")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "users")
	})

	t.Run("description is required", func(t *testing.T) {
		_, err := run(t, "match", "--users", users)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "description")
	})

	t.Run("threshold is validated", func(t *testing.T) {
		_, err := run(t, "match", "--users", users, "--threshold", "120", "From John Smith")
		require.Error(t, err)
	})

	t.Run("missing users file", func(t *testing.T) {
		_, err := run(t, "match", "--users", filepath.Join(t.TempDir(), "none.csv"), "From John Smith")
		require.Error(t, err)
	})
}

func TestSearchCommand_RequiresQuery(t *testing.T) {
	txns := writeFile(t, "transactions.csv", "id,description\ntx1,From John Smith for Deel\n")

	_, err := run(t, "search", "--transactions", txns)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}

func TestPrintConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		out, err := run(t, "print-config")
		require.NoError(t, err)

		cfg, err := config.Parse([]byte(out))
		require.NoError(t, err)
		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("file and flags", func(t *testing.T) {
		file := writeFile(t, "payermatch.toml", "[server]\naddr = \":9000\"\n\n[search]\nlimit = 10\n")

		out, err := run(t, "print-config", "--config", file, "--addr", ":7000", "--db", "/tmp/payermatch-db", "--embedding-model", "nomic-embed-text")
		require.NoError(t, err)

		cfg, err := config.Parse([]byte(out))
		require.NoError(t, err)
		assert.Equal(t, ":7000", cfg.Server.Addr, "flags override the file")
		assert.Equal(t, 10, cfg.Search.Limit)
		assert.Equal(t, "/tmp/payermatch-db", cfg.Data.DBPath)
		assert.Equal(t, "nomic-embed-text", cfg.AI.EmbeddingModel)
	})

	t.Run("invalid file", func(t *testing.T) {
		file := writeFile(t, "bad.toml", "[search]\nthreshold = 3\n")
		_, err := run(t, "print-config", "--config", file)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestSetupLogger(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		_, err := run(t, "--log-level", level, "print-config")
		assert.NoError(t, err, level)
	}

	_, err := run(t, "--log-level", "verbose", "print-config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
