// Package session carries the visitor's identity through a single request.
package session

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const contextKey = "session"

var ErrTornDown = errors.New("session already torn down")

// Identity is the authenticated visitor's profile
type Identity struct {
	ProfileID   uint
	FirebaseUID string
	Email       string
	Name        string
	Phone       string
	IsAdmin     bool
}

// Resolver turns request credentials into an Identity. It returns nil, nil for anonymous visitors.
type Resolver interface {
	Resolve(ctx context.Context, c echo.Context) (*Identity, error)
}

// Session is created when a request starts and torn down when it ends
type Session struct {
	Identity *Identity

	resolver Resolver
	done     bool
}

// New returns an uninitialised session
func New(resolver Resolver) *Session {
	return &Session{resolver: resolver}
}

// Init resolves the identity. A resolver failure leaves the session anonymous.
func (s *Session) Init(ctx context.Context, c echo.Context) error {
	if s.done {
		return ErrTornDown
	}
	if s.resolver == nil {
		return nil
	}
	identity, err := s.resolver.Resolve(ctx, c)
	if err != nil {
		log.WithError(err).Warn("session: identity resolution failed")
		return err
	}
	s.Identity = identity
	return nil
}

// Teardown drops the identity so it cannot leak past the request
func (s *Session) Teardown() {
	s.Identity = nil
	s.done = true
}

// LoggedIn reports whether an identity is present
func (s *Session) LoggedIn() bool {
	return s != nil && s.Identity != nil
}

// IsAdmin reports whether the identity may use the back-office
func (s *Session) IsAdmin() bool {
	return s.LoggedIn() && s.Identity.IsAdmin
}

// Attach stores the session on the echo context
func Attach(c echo.Context, s *Session) {
	c.Set(contextKey, s)
}

// From returns the request's session, or an empty one when none was attached
func From(c echo.Context) *Session {
	if s, ok := c.Get(contextKey).(*Session); ok && s != nil {
		return s
	}
	return &Session{}
}
