package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/waxcrate/waxcrate/internal/storage/db"
)

// Memory is a volatile [Store] used when no database is configured or the
// configured database cannot be reached. IDs restart at 1 on every process
// start; all state is lost on shutdown. A mutex guards the maps since
// requests are served on parallel goroutines.
type Memory struct {
	mu           sync.Mutex
	users        map[int64]db.User
	records      map[int64]db.Record
	sessions     map[string]db.Session
	nextUserID   int64
	nextRecordID int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:        make(map[int64]db.User),
		records:      make(map[int64]db.Record),
		sessions:     make(map[string]db.Session),
		nextUserID:   1,
		nextRecordID: 1,
	}
}

// Close satisfies the [Store] interface.
func (m *Memory) Close() error {
	return nil
}

// GetUser satisfies the [Users] interface.
func (m *Memory) GetUser(_ context.Context, id int64) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return db.User{}, ErrNotFound
	}
	return user, nil
}

// GetUserByUsername satisfies the [Users] interface.
func (m *Memory) GetUserByUsername(_ context.Context, username string) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user, ok := m.findUser(username); ok {
		return user, nil
	}
	return db.User{}, ErrNotFound
}

// CreateUser satisfies the [Users] interface. Uniqueness is re-checked here
// so the in-memory variant upholds the same contract as the relational one.
func (m *Memory) CreateUser(_ context.Context, candidate db.NewUser) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.findUser(candidate.Username); ok {
		return db.User{}, ErrAlreadyExists
	}
	user := db.User{
		ID:           m.nextUserID,
		Username:     candidate.Username,
		PasswordHash: candidate.PasswordHash,
		DisplayName:  candidate.DisplayName,
		CreatedAt:    time.Now().UTC(),
	}
	m.nextUserID++
	m.users[user.ID] = user
	return user, nil
}

// DeleteUser satisfies the [Users] interface.
func (m *Memory) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for token, sess := range m.sessions {
		if sess.UserID == id {
			delete(m.sessions, token)
		}
	}
	for recID, rec := range m.records {
		if rec.OwnerID == id {
			delete(m.records, recID)
		}
	}
	delete(m.users, id)
	return nil
}

// ListRecords satisfies the [Records] interface.
func (m *Memory) ListRecords(_ context.Context, ownerID int64) ([]db.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var records []db.Record
	for _, rec := range m.records {
		if rec.OwnerID == ownerID {
			records = append(records, cloneRecord(rec))
		}
	}
	return records, nil
}

// GetRecord satisfies the [Records] interface.
func (m *Memory) GetRecord(_ context.Context, id int64) (db.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return db.Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// CreateRecord satisfies the [Records] interface.
func (m *Memory) CreateRecord(_ context.Context, candidate db.NewRecord) (db.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := db.Record{
		ID:           m.nextRecordID,
		OwnerID:      candidate.OwnerID,
		Title:        candidate.Title,
		Artist:       candidate.Artist,
		Year:         candidate.Year,
		Genre:        candidate.Genre,
		CoverImage:   candidate.CoverImage,
		CustomFields: copyFields(candidate.CustomFields),
		CreatedAt:    time.Now().UTC(),
	}
	m.nextRecordID++
	m.records[rec.ID] = rec
	return cloneRecord(rec), nil
}

// UpdateRecord satisfies the [Records] interface.
func (m *Memory) UpdateRecord(_ context.Context, id int64, patch db.RecordPatch) (db.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return db.Record{}, ErrNotFound
	}
	rec = mergePatch(rec, patch)
	m.records[id] = rec
	return cloneRecord(rec), nil
}

// DeleteRecord satisfies the [Records] interface.
func (m *Memory) DeleteRecord(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

// SearchRecords satisfies the [Records] interface.
func (m *Memory) SearchRecords(_ context.Context, ownerID int64, query string) ([]db.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query = strings.ToLower(query)
	var records []db.Record
	for _, rec := range m.records {
		if rec.OwnerID != ownerID {
			continue
		}
		if containsFold(rec.Title, query) || containsFold(rec.Artist, query) ||
			containsFold(rec.Genre, query) || containsFold(rec.Year, query) {
			records = append(records, cloneRecord(rec))
		}
	}
	return records, nil
}

// containsFold reports whether s case-insensitively contains the
// already-lowercased substring.
func containsFold(s, lowered string) bool {
	return strings.Contains(strings.ToLower(s), lowered)
}

// CreateSession satisfies the [Sessions] interface.
func (m *Memory) CreateSession(_ context.Context, userID int64) (db.Session, error) {
	token, err := newSessionToken()
	if err != nil {
		return db.Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for old, sess := range m.sessions {
		if sess.UserID == userID {
			delete(m.sessions, old)
		}
	}
	now := time.Now().UTC()
	sess := db.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(SessionTTL),
		CreatedAt: now,
	}
	m.sessions[token] = sess
	return sess, nil
}

// GetSession satisfies the [Sessions] interface.
func (m *Memory) GetSession(_ context.Context, token string) (db.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[token]
	if !ok {
		return db.Session{}, ErrNotFound
	}
	if sess.Expired(time.Now()) {
		delete(m.sessions, token)
		return db.Session{}, ErrNotFound
	}
	return sess, nil
}

// DeleteSession satisfies the [Sessions] interface.
func (m *Memory) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, token)
	return nil
}

// findUser requires m.mu to be held.
func (m *Memory) findUser(username string) (db.User, bool) {
	for _, user := range m.users {
		if user.Username == username {
			return user, true
		}
	}
	return db.User{}, false
}

// cloneRecord copies a record so callers cannot alias the stored custom
// fields map.
func cloneRecord(rec db.Record) db.Record {
	rec.CustomFields = copyFields(rec.CustomFields)
	return rec
}

func copyFields(fields map[string]string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

var _ Store = (*Memory)(nil)
