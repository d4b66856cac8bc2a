package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waxcrate/waxcrate/internal/storage/db"
)

// testStore exercises the behavior every Store implementation must share.
// Subtests create their own users so they can run in parallel against the
// same store.
func testStore(t *testing.T, store Store) {
	t.Helper()

	t.Run("UserCRUD", func(t *testing.T) {
		t.Parallel()

		candidate := db.NewUser{
			Username:     t.Name(),
			PasswordHash: "not-a-real-hash",
			DisplayName:  "Test User",
		}
		user, err := store.CreateUser(t.Context(), candidate)
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, candidate.Username, user.Username)
		assert.Equal(t, candidate.DisplayName, user.DisplayName)
		assert.WithinDuration(t, time.Now(), user.CreatedAt, time.Minute)

		actual, err := store.GetUser(t.Context(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Username, actual.Username)
		assert.Equal(t, user.PasswordHash, actual.PasswordHash)

		actual, err = store.GetUserByUsername(t.Context(), user.Username)
		require.NoError(t, err)
		assert.Equal(t, user.ID, actual.ID)

		_, err = store.GetUser(t.Context(), 0)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetUserByUsername(t.Context(), "not a real user")
		require.ErrorIs(t, err, ErrNotFound)

		_, err = store.CreateUser(t.Context(), candidate)
		require.ErrorIs(t, err, ErrAlreadyExists)

		err = store.DeleteUser(t.Context(), user.ID)
		require.NoError(t, err)
		_, err = store.GetUser(t.Context(), user.ID)
		require.ErrorIs(t, err, ErrNotFound)

		// Deleting again is a no-op.
		err = store.DeleteUser(t.Context(), user.ID)
		require.NoError(t, err)
	})

	t.Run("DeleteUserCascades", func(t *testing.T) {
		t.Parallel()

		user := mustCreateUser(t, store)
		rec, err := store.CreateRecord(t.Context(), db.NewRecord{
			OwnerID: user.ID,
			Title:   "Rumours",
			Artist:  "Fleetwood Mac",
		})
		require.NoError(t, err)
		sess, err := store.CreateSession(t.Context(), user.ID)
		require.NoError(t, err)

		err = store.DeleteUser(t.Context(), user.ID)
		require.NoError(t, err)

		_, err = store.GetRecord(t.Context(), rec.ID)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetSession(t.Context(), sess.Token)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("RecordCRUD", func(t *testing.T) {
		t.Parallel()

		user := mustCreateUser(t, store)
		candidate := db.NewRecord{
			OwnerID:    user.ID,
			Title:      "Abbey Road",
			Artist:     "The Beatles",
			Year:       "1969",
			Genre:      "Rock",
			CoverImage: "https://example.com/abbey-road.jpg",
			CustomFields: map[string]string{
				"condition": "VG+",
				"pressing":  "original",
			},
		}
		rec, err := store.CreateRecord(t.Context(), candidate)
		require.NoError(t, err)
		assert.NotZero(t, rec.ID)
		assert.Equal(t, user.ID, rec.OwnerID)

		actual, err := store.GetRecord(t.Context(), rec.ID)
		require.NoError(t, err)
		assert.Equal(t, candidate.Title, actual.Title)
		assert.Equal(t, candidate.Artist, actual.Artist)
		assert.Equal(t, candidate.Year, actual.Year)
		assert.Equal(t, candidate.Genre, actual.Genre)
		assert.Equal(t, candidate.CoverImage, actual.CoverImage)
		assert.Equal(t, candidate.CustomFields, actual.CustomFields)

		records, err := store.ListRecords(t.Context(), user.ID)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, rec.ID, records[0].ID)

		deleted, err := store.DeleteRecord(t.Context(), rec.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		_, err = store.GetRecord(t.Context(), rec.ID)
		require.ErrorIs(t, err, ErrNotFound)

		deleted, err = store.DeleteRecord(t.Context(), rec.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("EmptyCustomFieldsNormalize", func(t *testing.T) {
		t.Parallel()

		user := mustCreateUser(t, store)
		rec, err := store.CreateRecord(t.Context(), db.NewRecord{
			OwnerID:      user.ID,
			Title:        "Graceland",
			Artist:       "Paul Simon",
			CustomFields: map[string]string{},
		})
		require.NoError(t, err)

		actual, err := store.GetRecord(t.Context(), rec.ID)
		require.NoError(t, err)
		assert.Nil(t, actual.CustomFields)
	})

	t.Run("UpdateRecord", func(t *testing.T) {
		t.Parallel()

		user := mustCreateUser(t, store)
		rec, err := store.CreateRecord(t.Context(), db.NewRecord{
			OwnerID: user.ID,
			Title:   "Nevermind",
			Artist:  "Nirvana",
			Year:    "1991",
			Genre:   "Grunge",
		})
		require.NoError(t, err)

		title := "Nevermind (Remastered)"
		updated, err := store.UpdateRecord(t.Context(), rec.ID, db.RecordPatch{
			Title: &title,
			CustomFields: map[string]string{
				"condition": "Mint",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, title, updated.Title)
		assert.Equal(t, "Nirvana", updated.Artist)
		assert.Equal(t, "1991", updated.Year)
		assert.Equal(t, "Grunge", updated.Genre)
		assert.Equal(t, map[string]string{"condition": "Mint"}, updated.CustomFields)

		actual, err := store.GetRecord(t.Context(), rec.ID)
		require.NoError(t, err)
		assert.Equal(t, title, actual.Title)
		assert.Equal(t, updated.CustomFields, actual.CustomFields)

		_, err = store.UpdateRecord(t.Context(), 0, db.RecordPatch{Title: &title})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SearchRecords", func(t *testing.T) {
		t.Parallel()

		user := mustCreateUser(t, store)
		other := mustCreateUser(t, store)
		for _, candidate := range []db.NewRecord{
			{OwnerID: user.ID, Title: "The Dark Side of the Moon", Artist: "Pink Floyd", Year: "1973", Genre: "Progressive Rock"},
			{OwnerID: user.ID, Title: "Thriller", Artist: "Michael Jackson", Year: "1982", Genre: "Pop"},
			{OwnerID: other.ID, Title: "Wish You Were Here", Artist: "Pink Floyd", Year: "1975", Genre: "Progressive Rock"},
		} {
			_, err := store.CreateRecord(t.Context(), candidate)
			require.NoError(t, err)
		}

		// Case-insensitive substring match on any searchable field, scoped
		// to the owner.
		records, err := store.SearchRecords(t.Context(), user.ID, "pink FLOYD")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "The Dark Side of the Moon", records[0].Title)

		records, err = store.SearchRecords(t.Context(), user.ID, "1982")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Thriller", records[0].Title)

		records, err = store.SearchRecords(t.Context(), user.ID, "rock")
		require.NoError(t, err)
		assert.Len(t, records, 1)

		records, err = store.SearchRecords(t.Context(), user.ID, "zeppelin")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("Sessions", func(t *testing.T) {
		t.Parallel()

		user := mustCreateUser(t, store)
		sess, err := store.CreateSession(t.Context(), user.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, sess.Token)
		assert.Equal(t, user.ID, sess.UserID)
		assert.True(t, sess.ExpiresAt.After(time.Now()))

		actual, err := store.GetSession(t.Context(), sess.Token)
		require.NoError(t, err)
		assert.Equal(t, sess.Token, actual.Token)
		assert.Equal(t, user.ID, actual.UserID)

		_, err = store.GetSession(t.Context(), "not a real token")
		require.ErrorIs(t, err, ErrNotFound)

		// A new login replaces the previous session.
		replacement, err := store.CreateSession(t.Context(), user.ID)
		require.NoError(t, err)
		assert.NotEqual(t, sess.Token, replacement.Token)
		_, err = store.GetSession(t.Context(), sess.Token)
		require.ErrorIs(t, err, ErrNotFound)

		err = store.DeleteSession(t.Context(), replacement.Token)
		require.NoError(t, err)
		_, err = store.GetSession(t.Context(), replacement.Token)
		require.ErrorIs(t, err, ErrNotFound)

		// Deleting an unknown token is a no-op.
		err = store.DeleteSession(t.Context(), "not a real token")
		require.NoError(t, err)
	})
}

func mustCreateUser(t *testing.T, store Store) db.User {
	t.Helper()
	user, err := store.CreateUser(t.Context(), db.NewUser{
		Username:     t.Name() + "/" + randomSuffix(t),
		PasswordHash: "not-a-real-hash",
		DisplayName:  "Test User",
	})
	require.NoError(t, err)
	return user
}

func randomSuffix(t *testing.T) string {
	t.Helper()
	token, err := newSessionToken()
	require.NoError(t, err)
	return token[:8]
}
