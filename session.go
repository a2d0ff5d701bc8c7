package users

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// Session holds an optional authenticated user. Storage of the identifier
// between requests (cookie, header, whatever) belongs to the transport layer
// that wraps this core; the session only knows how to resolve and check it.
type Session struct {
	users Users
	user  *User
}

// NewSession creates an empty session over the user repository.
func NewSession(users Users) *Session {
	return &Session{users: users}
}

// Resume loads the user for a previously stored identifier. An unknown
// identifier leaves the session logged out without an error.
func (s *Session) Resume(ctx context.Context, id int64) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.user = user
	return nil
}

// Login authenticates credentials and, when they match, attaches the user to
// the session. Wrong email or password returns false, not an error. With
// confirmedOnly set, valid credentials for an unconfirmed account also
// return false.
func (s *Session) Login(ctx context.Context, email, password string, confirmedOnly bool) (bool, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if err == ErrMismatchedHashAndPassword {
			return false, nil
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "stored password hash is malformed")
	}

	if confirmedOnly && !user.Confirmed {
		return false, nil
	}

	s.user = user
	return true, nil
}

// Logout detaches the user.
func (s *Session) Logout() {
	s.user = nil
}

// LoggedIn reports whether a user is attached.
func (s *Session) LoggedIn() bool {
	return s.user != nil
}

// User returns the authenticated user, or nil.
func (s *Session) User() *User {
	return s.user
}

// SetUser attaches a user directly.
func (s *Session) SetUser(user *User) {
	s.user = user
}
