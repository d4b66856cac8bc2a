package storage

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Deliberately not parallel: goose migration setup mutates package-level
// state, so backend selection must not overlap with TestDB.
func TestOpen(t *testing.T) {
	t.Run("NoDSN", func(t *testing.T) {
		store := Open(t.Context(), slog.Default(), "")
		t.Cleanup(func() { _ = store.Close() })
		assert.IsType(t, &Memory{}, store)
	})

	t.Run("SQLitePath", func(t *testing.T) {
		store := Open(t.Context(), slog.Default(), filepath.Join(t.TempDir(), "db.sqlite"))
		t.Cleanup(func() { _ = store.Close() })
		assert.IsType(t, &DB{}, store)
	})

	t.Run("FallbackOnFailure", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte{}, 0o600))

		store := Open(t.Context(), slog.Default(), filepath.Join(blocker, "db.sqlite"))
		t.Cleanup(func() { _ = store.Close() })
		assert.IsType(t, &Memory{}, store)
	})
}
