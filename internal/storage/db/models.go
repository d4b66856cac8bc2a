package db

import "time"

// User is a registered account. The password hash is a self-contained scrypt
// encoding and must never serialize into API responses.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewUser holds the caller-supplied fields for user creation. The storage
// layer assigns ID and CreatedAt.
type NewUser struct {
	Username     string
	PasswordHash string
	DisplayName  string
}

// Record is a single catalog entry. OwnerID is a lookup key referencing the
// user that created the record; ownership checks happen at the API boundary.
type Record struct {
	ID           int64             `json:"id"`
	OwnerID      int64             `json:"ownerId"`
	Title        string            `json:"title"`
	Artist       string            `json:"artist"`
	Year         string            `json:"year,omitempty"`
	Genre        string            `json:"genre,omitempty"`
	CoverImage   string            `json:"coverImage,omitempty"`
	CustomFields map[string]string `json:"customFields,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// NewRecord holds the caller-supplied fields for record creation.
type NewRecord struct {
	OwnerID      int64
	Title        string
	Artist       string
	Year         string
	Genre        string
	CoverImage   string
	CustomFields map[string]string
}

// RecordPatch is a partial record update. Nil pointers leave the
// corresponding field untouched; a nil CustomFields map is likewise ignored.
type RecordPatch struct {
	Title        *string
	Artist       *string
	Year         *string
	Genre        *string
	CoverImage   *string
	CustomFields map[string]string
}

// Session is the server-held proof of an authenticated identity. The token
// is opaque to clients, which hold it wrapped in a signed cookie.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session expiry has passed at the given time.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
