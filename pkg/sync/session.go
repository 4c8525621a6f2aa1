package sync

import (
	stdsync "sync"

	"github.com/rs/zerolog"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// Session tracks the signed-in user and tells registered watchers when the
// identity changes, so they can restart their subscriptions under the new
// user filter.
type Session struct {
	logger zerolog.Logger

	mu       stdsync.Mutex
	user     *types.User
	watchers []func(*types.User)
}

// NewSession creates an empty session with no user.
func NewSession(logger zerolog.Logger) *Session {
	return &Session{logger: logger}
}

// SetUser replaces the current user (nil signs out) and notifies watchers.
func (s *Session) SetUser(user *types.User) {
	s.mu.Lock()
	s.user = user
	watchers := append([](func(*types.User))(nil), s.watchers...)
	s.mu.Unlock()

	if user != nil {
		s.logger.Info().Str("user", user.ID).Bool("verified", user.EmailVerified).Msg("user changed")
	} else {
		s.logger.Info().Msg("user signed out")
	}
	for _, w := range watchers {
		w(user)
	}
}

// Current returns the current user, or nil when signed out.
func (s *Session) Current() *types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Authenticated reports whether a user is signed in with a verified email.
// Unverified accounts are treated as signed out everywhere.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.user.EmailVerified
}

// OnChange registers a watcher called on every SetUser.
func (s *Session) OnChange(fn func(*types.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}
