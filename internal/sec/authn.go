package sec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/waxcrate/waxcrate/internal/storage"
	"github.com/waxcrate/waxcrate/internal/storage/db"
)

const (
	// ErrBadCredentials is returned when a username or password does not
	// check out. Unknown user and wrong password are indistinguishable.
	ErrBadCredentials Error = "invalid username or password"
	// ErrNoSession is returned when a request carries no valid session.
	ErrNoSession Error = "no valid session"
)

// Error is an error type returned by the sec package.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Authenticator implements register/login/logout/current-user on top of the
// storage layer.
type Authenticator struct {
	store  storage.Store
	logger *slog.Logger
}

// NewAuthenticator creates an Authenticator backed by the given store.
func NewAuthenticator(store storage.Store, logger *slog.Logger) *Authenticator {
	return &Authenticator{store: store, logger: logger}
}

// Register hashes the password, creates the user and establishes a session.
// A taken username surfaces as [storage.ErrAlreadyExists]; no user is
// created in that case.
func (a *Authenticator) Register(ctx context.Context, username, password, displayName string) (db.User, db.Session, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return db.User{}, db.Session{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := a.store.CreateUser(ctx, db.NewUser{
		Username:     strings.TrimSpace(username),
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(displayName),
	})
	if err != nil {
		return db.User{}, db.Session{}, err
	}
	sess, err := a.store.CreateSession(ctx, user.ID)
	if err != nil {
		return db.User{}, db.Session{}, err
	}
	a.logger.InfoContext(ctx, "user registered", slog.String("username", user.Username))
	return user, sess, nil
}

// Login verifies the credentials and establishes a session, replacing any
// previous one the user held.
func (a *Authenticator) Login(ctx context.Context, username, password string) (db.User, db.Session, error) {
	user, err := a.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return db.User{}, db.Session{}, ErrBadCredentials
	} else if err != nil {
		return db.User{}, db.Session{}, err
	}
	if err := ComparePassword(password, user.PasswordHash); err != nil {
		return db.User{}, db.Session{}, err
	}
	sess, err := a.store.CreateSession(ctx, user.ID)
	if err != nil {
		return db.User{}, db.Session{}, err
	}
	return user, sess, nil
}

// Logout destroys the session for the given token. Unknown tokens are a
// no-op.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	return a.store.DeleteSession(ctx, token)
}

// CurrentUser resolves the session token to its user. Unknown or expired
// sessions return [ErrNoSession].
func (a *Authenticator) CurrentUser(ctx context.Context, token string) (db.User, error) {
	sess, err := a.store.GetSession(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return db.User{}, ErrNoSession
	} else if err != nil {
		return db.User{}, err
	}
	user, err := a.store.GetUser(ctx, sess.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		// The account vanished out from under the session.
		_ = a.store.DeleteSession(ctx, token)
		return db.User{}, ErrNoSession
	}
	return user, err
}

type userKey struct{}

// GetAuthenticatedUser returns the user stashed on the context by the API
// authentication middleware. Returns a zero-value User if the context has no
// authenticated user (should only happen if middleware is misconfigured).
func GetAuthenticatedUser(ctx context.Context) db.User {
	if user, ok := ctx.Value(userKey{}).(db.User); ok {
		return user
	}
	return db.User{}
}

// SetAuthenticatedUser stashes the authenticated user on the context. The
// API middleware injects this; the function is exported as a convenience for
// testing.
func SetAuthenticatedUser(ctx context.Context, user db.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}
