package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waxcrate/waxcrate/internal/storage/db"
)

func TestMemory(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	t.Cleanup(func() { _ = store.Close() })

	testStore(t, store)
}

func TestMemoryIDsStartAtOne(t *testing.T) {
	t.Parallel()

	store := NewMemory()

	user, err := store.CreateUser(t.Context(), db.NewUser{
		Username:     "first",
		PasswordHash: "not-a-real-hash",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	rec, err := store.CreateRecord(t.Context(), db.NewRecord{
		OwnerID: user.ID,
		Title:   "Saturday Night Fever",
		Artist:  "Bee Gees",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)

	second, err := store.CreateUser(t.Context(), db.NewUser{
		Username:     "second",
		PasswordHash: "not-a-real-hash",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
}

func TestMemoryExpiredSession(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	sess, err := store.CreateSession(t.Context(), 1)
	require.NoError(t, err)

	store.mu.Lock()
	expired := store.sessions[sess.Token]
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	store.sessions[sess.Token] = expired
	store.mu.Unlock()

	_, err = store.GetSession(t.Context(), sess.Token)
	require.ErrorIs(t, err, ErrNotFound)

	// The expired session is removed, not just hidden.
	store.mu.Lock()
	_, ok := store.sessions[sess.Token]
	store.mu.Unlock()
	assert.False(t, ok)
}

func TestMemoryRecordIsolation(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	fields := map[string]string{"condition": "VG"}
	rec, err := store.CreateRecord(t.Context(), db.NewRecord{
		OwnerID:      1,
		Title:        "Thriller",
		Artist:       "Michael Jackson",
		CustomFields: fields,
	})
	require.NoError(t, err)

	// Mutating the caller's map must not leak into the store.
	fields["condition"] = "Poor"
	rec.CustomFields["condition"] = "Poor"

	actual, err := store.GetRecord(t.Context(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "VG", actual.CustomFields["condition"])
}
