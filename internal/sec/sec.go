// Package sec provides authentication and security primitives for the web
// application.
//
// # Authentication
//
// Authentication is session based: login creates a server-held session keyed
// by an opaque random token, and the client holds that token wrapped in an
// HMAC-signed cookie. The signature rejects forged or garbled cookies before
// any store lookup; the session store stays authoritative.
//
// # Components
//
//   - [Authenticator]: register/login/logout/current-user on the storage layer
//   - [SignSessionToken], [ParseSessionCookie]: signed session cookie codec
//   - [GetAuthenticatedUser], [SetAuthenticatedUser]: context accessors
//   - [HashPassword], [ComparePassword]: scrypt password hashing utilities
package sec
