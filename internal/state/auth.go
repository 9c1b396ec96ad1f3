package state

import (
	"context"
	"errors"
	"strings"
	"time"

	"gestaosocial/internal/core"
	"gestaosocial/internal/remote"
)

// ErrNotAuthenticated is returned to callers that need a signed-in operator.
var ErrNotAuthenticated = errors.New("not authenticated")

type AuthState int

const (
	AuthUnknown AuthState = iota
	AuthAuthenticated
	AuthUnauthenticated
)

func (a AuthState) String() string {
	switch a {
	case AuthAuthenticated:
		return "authenticated"
	case AuthUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Nothing returns to Unknown once the first check has settled.
var authTransitions = map[AuthState][]AuthState{
	AuthUnknown:         {AuthAuthenticated, AuthUnauthenticated},
	AuthAuthenticated:   {AuthUnauthenticated},
	AuthUnauthenticated: {AuthAuthenticated},
}

func canTransition(from, to AuthState) bool {
	for _, next := range authTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AuthError is a failed sign-in, sign-up or sign-out. Message is ready to
// show the operator.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// TranslateAuthError maps the backend's auth errors to operator messages.
func TranslateAuthError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Invalid login credentials"):
		return "E-mail ou senha incorretos."
	case strings.Contains(msg, "User already registered"):
		return "Este e-mail já está cadastrado."
	case strings.Contains(msg, "Password should be at least"):
		return "A senha deve ter pelo menos 6 caracteres."
	}
	return "Erro na autenticação: " + msg
}

type SignUpOutcome struct {
	// ConfirmationRequired is set when the account exists but must be
	// confirmed by email before it can sign in.
	ConfirmationRequired bool
}

type sessionCheck struct {
	session *remote.Session
	err     error
}

// Start subscribes to session changes and settles the initial auth state.
// The session check races a timer; whichever finishes first decides and a
// late check result is discarded.
func (s *Store) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unsubscribe := s.backend.OnAuthStateChange(s.handleAuthEvent)
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	checkCtx, cancel := context.WithCancel(ctx)
	results := make(chan sessionCheck, 1)
	go func() {
		sess, err := s.backend.GetCurrentSession(checkCtx)
		results <- sessionCheck{session: sess, err: err}
	}()

	timer := time.NewTimer(s.sessionTimeout)
	defer timer.Stop()

	select {
	case res := <-results:
		cancel()
		switch {
		case res.err != nil:
			s.log.ErrorContext(ctx, "Session check failed", "error", res.err)
			s.signedOut()
		case res.session == nil:
			s.signedOut()
		default:
			s.signedIn(ctx, res.session)
		}
	case <-timer.C:
		s.log.WarnContext(ctx, "Session check timed out, assuming signed out", "timeout", s.sessionTimeout)
		s.settleUnknown()
		cancel()
		go func() {
			res := <-results
			s.log.Debug("Discarded late session check result", "has_session", res.session != nil, "error", res.err)
		}()
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
	return nil
}

func (s *Store) AuthState() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth
}

func (s *Store) IsAuthenticated() bool {
	return s.AuthState() == AuthAuthenticated
}

// Session returns a copy of the active session, or nil.
func (s *Store) Session() *remote.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	sess := *s.session
	return &sess
}

func (s *Store) SignIn(ctx context.Context, email, password string) error {
	sess, err := s.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.log.WarnContext(ctx, "Sign-in failed", "error", err)
		return &AuthError{Message: TranslateAuthError(err), Err: err}
	}
	if !s.IsAuthenticated() {
		s.signedIn(ctx, sess)
	}
	return nil
}

func (s *Store) SignUp(ctx context.Context, email, password string) (SignUpOutcome, error) {
	res, err := s.backend.SignUp(ctx, email, password)
	if err != nil {
		s.log.WarnContext(ctx, "Sign-up failed", "error", err)
		return SignUpOutcome{}, &AuthError{Message: TranslateAuthError(err), Err: err}
	}
	if res.Session == nil {
		return SignUpOutcome{ConfirmationRequired: true}, nil
	}
	if !s.IsAuthenticated() {
		s.signedIn(ctx, res.Session)
	}
	return SignUpOutcome{}, nil
}

// SignOut ends the session. Local state is cleared even when the backend
// call fails.
func (s *Store) SignOut(ctx context.Context) error {
	err := s.backend.SignOut(ctx)
	s.signedOut()
	if err != nil {
		s.log.ErrorContext(ctx, "Sign-out failed", "error", err)
		return &AuthError{Message: TranslateAuthError(err), Err: err}
	}
	return nil
}

func (s *Store) handleAuthEvent(ev remote.AuthEvent) {
	ctx := context.Background()
	s.log.Info("Auth state changed", "event", ev.Event, "has_session", ev.Session != nil)
	if ev.Session != nil {
		s.signedIn(ctx, ev.Session)
		return
	}
	s.signedOut()
}

// signedIn records the session and reloads both collections.
func (s *Store) signedIn(ctx context.Context, sess *remote.Session) {
	s.mu.Lock()
	s.setAuth(AuthAuthenticated)
	copied := *sess
	s.session = &copied
	s.mu.Unlock()

	if err := s.Reload(ctx); err != nil {
		s.log.ErrorContext(ctx, "Reload after sign-in was incomplete", "error", err)
	}
}

// signedOut clears the session and both collections.
func (s *Store) signedOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setAuth(AuthUnauthenticated)
	s.session = nil
	s.generation++
	s.families = []core.Family{}
	s.transactions = []core.Transaction{}
	s.revision++
}

// settleUnknown marks the operator signed out unless a session event has
// already decided the state.
func (s *Store) settleUnknown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auth == AuthUnknown {
		s.setAuth(AuthUnauthenticated)
	}
}

// setAuth must be called with s.mu held.
func (s *Store) setAuth(to AuthState) {
	if s.auth == to {
		return
	}
	if !canTransition(s.auth, to) {
		s.log.Warn("Ignoring invalid auth transition", "from", s.auth.String(), "to", to.String())
		return
	}
	s.log.Info("Auth state transition", "from", s.auth.String(), "to", to.String())
	s.auth = to
}
