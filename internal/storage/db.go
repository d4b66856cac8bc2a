package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/influxdata/influxdb/pkg/snowflake"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/waxcrate/waxcrate/internal/storage/db"
)

// DB is a [Store] backed by a relational database, either SQLite or
// PostgreSQL depending on the configured DSN.
type DB struct {
	ids *snowflake.Generator
	db  *sql.DB
}

// NewDB opens the relational store for the given DSN, running schema
// migrations as needed.
func NewDB(ctx context.Context, logger *slog.Logger, dsn string) (*DB, error) {
	handle, err := db.Open(ctx, logger, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{
		ids: snowflake.New(rand.IntN(1023)), //nolint:gosec,mnd // this isn't for crypto
		db:  handle,
	}, nil
}

// Close satisfies the [Store] interface.
func (d *DB) Close() error {
	return d.db.Close()
}

// GetUser satisfies the [Users] interface.
func (d *DB) GetUser(ctx context.Context, id int64) (db.User, error) {
	return scanUser(d.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, display_name, created_at
		 FROM users WHERE id = $1`, id))
}

// GetUserByUsername satisfies the [Users] interface.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (db.User, error) {
	return scanUser(d.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, display_name, created_at
		 FROM users WHERE username = $1`, username))
}

// CreateUser satisfies the [Users] interface. Username uniqueness is
// enforced by the table constraint.
func (d *DB) CreateUser(ctx context.Context, candidate db.NewUser) (db.User, error) {
	user := db.User{
		ID:           d.nextID(),
		Username:     candidate.Username,
		PasswordHash: candidate.PasswordHash,
		DisplayName:  candidate.DisplayName,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, display_name, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.PasswordHash, user.DisplayName, user.CreatedAt)
	switch {
	case isUniqueViolation(err):
		return db.User{}, ErrAlreadyExists
	case err != nil:
		return db.User{}, err
	}
	return user, nil
}

// DeleteUser satisfies the [Users] interface, removing the user's sessions
// and records along with the account.
func (d *DB) DeleteUser(ctx context.Context, id int64) error {
	for _, q := range []string{
		`DELETE FROM sessions WHERE user_id = $1`,
		`DELETE FROM records WHERE owner_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	} {
		if _, err := d.db.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return nil
}

// ListRecords satisfies the [Records] interface.
func (d *DB) ListRecords(ctx context.Context, ownerID int64) ([]db.Record, error) {
	return d.queryRecords(ctx,
		`SELECT id, owner_id, title, artist, year, genre, cover_image, custom_fields, created_at
		 FROM records WHERE owner_id = $1`, ownerID)
}

// GetRecord satisfies the [Records] interface.
func (d *DB) GetRecord(ctx context.Context, id int64) (db.Record, error) {
	return scanRecord(d.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, artist, year, genre, cover_image, custom_fields, created_at
		 FROM records WHERE id = $1`, id))
}

// CreateRecord satisfies the [Records] interface.
func (d *DB) CreateRecord(ctx context.Context, candidate db.NewRecord) (db.Record, error) {
	rec := db.Record{
		ID:           d.nextID(),
		OwnerID:      candidate.OwnerID,
		Title:        candidate.Title,
		Artist:       candidate.Artist,
		Year:         candidate.Year,
		Genre:        candidate.Genre,
		CoverImage:   candidate.CoverImage,
		CustomFields: candidate.CustomFields,
		CreatedAt:    time.Now().UTC(),
	}
	fields, err := encodeCustomFields(rec.CustomFields)
	if err != nil {
		return db.Record{}, err
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO records (id, owner_id, title, artist, year, genre, cover_image, custom_fields, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.OwnerID, rec.Title, rec.Artist, rec.Year, rec.Genre,
		rec.CoverImage, fields, rec.CreatedAt)
	if err != nil {
		return db.Record{}, err
	}
	return rec, nil
}

// UpdateRecord satisfies the [Records] interface. The merge happens in
// process; only fields present in the patch change.
func (d *DB) UpdateRecord(ctx context.Context, id int64, patch db.RecordPatch) (db.Record, error) {
	rec, err := d.GetRecord(ctx, id)
	if err != nil {
		return db.Record{}, err
	}
	rec = mergePatch(rec, patch)
	fields, err := encodeCustomFields(rec.CustomFields)
	if err != nil {
		return db.Record{}, err
	}
	_, err = d.db.ExecContext(ctx,
		`UPDATE records SET title = $2, artist = $3, year = $4, genre = $5,
		 cover_image = $6, custom_fields = $7 WHERE id = $1`,
		id, rec.Title, rec.Artist, rec.Year, rec.Genre, rec.CoverImage, fields)
	if err != nil {
		return db.Record{}, err
	}
	return rec, nil
}

// DeleteRecord satisfies the [Records] interface.
func (d *DB) DeleteRecord(ctx context.Context, id int64) (bool, error) {
	res, err := d.db.ExecContext(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// SearchRecords satisfies the [Records] interface.
func (d *DB) SearchRecords(ctx context.Context, ownerID int64, query string) ([]db.Record, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	return d.queryRecords(ctx,
		`SELECT id, owner_id, title, artist, year, genre, cover_image, custom_fields, created_at
		 FROM records WHERE owner_id = $1
		 AND (lower(title) LIKE $2 OR lower(artist) LIKE $2
		      OR lower(genre) LIKE $2 OR lower(year) LIKE $2)`,
		ownerID, pattern)
}

// CreateSession satisfies the [Sessions] interface. Any previous sessions
// held by the user are replaced.
func (d *DB) CreateSession(ctx context.Context, userID int64) (db.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return db.Session{}, err
	}
	if _, err = d.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return db.Session{}, err
	}
	now := time.Now().UTC()
	sess := db.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(SessionTTL),
		CreatedAt: now,
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		sess.Token, sess.UserID, sess.ExpiresAt, sess.CreatedAt)
	if err != nil {
		return db.Session{}, err
	}
	return sess, nil
}

// GetSession satisfies the [Sessions] interface. Expired sessions are
// removed on read.
func (d *DB) GetSession(ctx context.Context, token string) (db.Session, error) {
	var sess db.Session
	err := d.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = $1`, token).
		Scan(&sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return db.Session{}, ErrNotFound
	case err != nil:
		return db.Session{}, err
	}
	if sess.Expired(time.Now()) {
		_ = d.DeleteSession(ctx, token)
		return db.Session{}, ErrNotFound
	}
	return sess, nil
}

// DeleteSession satisfies the [Sessions] interface.
func (d *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func (d *DB) nextID() int64 {
	return int64(d.ids.Next()) //nolint:gosec // snowflake IDs fit in 63 bits
}

func (d *DB) queryRecords(ctx context.Context, query string, args ...any) ([]db.Record, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []db.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (db.User, error) {
	var user db.User
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.DisplayName, &user.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return db.User{}, ErrNotFound
	case err != nil:
		return db.User{}, err
	}
	return user, nil
}

func scanRecord(row scanner) (db.Record, error) {
	var rec db.Record
	var fields string
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.Title, &rec.Artist, &rec.Year,
		&rec.Genre, &rec.CoverImage, &fields, &rec.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return db.Record{}, ErrNotFound
	case err != nil:
		return db.Record{}, err
	}
	rec.CustomFields, err = decodeCustomFields(fields)
	if err != nil {
		return db.Record{}, err
	}
	return rec, nil
}

// mergePatch applies the non-nil patch fields to a record.
func mergePatch(rec db.Record, patch db.RecordPatch) db.Record {
	if patch.Title != nil {
		rec.Title = *patch.Title
	}
	if patch.Artist != nil {
		rec.Artist = *patch.Artist
	}
	if patch.Year != nil {
		rec.Year = *patch.Year
	}
	if patch.Genre != nil {
		rec.Genre = *patch.Genre
	}
	if patch.CoverImage != nil {
		rec.CoverImage = *patch.CoverImage
	}
	if patch.CustomFields != nil {
		rec.CustomFields = copyFields(patch.CustomFields)
	}
	return rec
}

// Custom fields persist as a JSON text column. An empty mapping normalizes
// to a nil map so values round-trip comparably across backends.
func encodeCustomFields(fields map[string]string) (string, error) {
	if len(fields) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode custom fields: %w", err)
	}
	return string(data), nil
}

func decodeCustomFields(doc string) (map[string]string, error) {
	if doc == "" || doc == "{}" {
		return nil, nil
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(doc), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode custom fields: %w", err)
	}
	return fields, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

var _ Store = (*DB)(nil)
