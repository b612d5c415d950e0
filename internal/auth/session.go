package auth

import "github.com/gorilla/sessions"

// StoreOptions configures the cookie store backing the OAuth handshake.
// The app's own session rides in the database-backed "session" cookie, not
// here.
type StoreOptions struct {
	Secret   string
	MaxAge   int
	HttpOnly bool
	Secure   bool
}

func NewCookieStore(opts StoreOptions) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(opts.Secret))

	store.MaxAge(opts.MaxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = opts.HttpOnly
	store.Options.Secure = opts.Secure

	return store
}
