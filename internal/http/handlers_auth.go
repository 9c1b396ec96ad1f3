package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	applog "gestaosocial/internal/log"
	"gestaosocial/internal/remote"
	"gestaosocial/internal/state"
)

// SessionCookie carries the operator's access token for browser clients.
// API clients may send the same token as a bearer token instead.
const SessionCookie = "gs_session"

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authStatus struct {
	State       string `json:"state"`
	Email       string `json:"email,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// currentAuth reports the store's auth state. The operator's email is only
// shown to a caller holding the session token.
func (s *Server) currentAuth(r *http.Request) authStatus {
	st := authStatus{State: s.store.AuthState().String()}
	if sess, ok := s.requestSession(r); ok {
		st.Email = sess.User.Email
	}
	return st
}

// requestToken reads a bearer token, falling back to the session cookie.
func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// requestSession returns the active session when the request carries its
// access token.
func (s *Server) requestSession(r *http.Request) (*remote.Session, bool) {
	if !s.store.IsAuthenticated() {
		return nil, false
	}
	sess := s.store.Session()
	if sess == nil || sess.AccessToken == "" {
		return nil, false
	}
	tok := requestToken(r)
	if tok == "" || subtle.ConstantTimeCompare([]byte(tok), []byte(sess.AccessToken)) != 1 {
		return nil, false
	}
	return sess, true
}

// grantSession hands the new session token to the caller as a cookie and
// in the response body.
func (s *Server) grantSession(w http.ResponseWriter, r *http.Request, status int) {
	sess := s.store.Session()
	if sess == nil {
		writeJSON(w, status, authStatus{State: s.store.AuthState().String()})
		return
	}
	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	}
	if !sess.ExpiresAt.IsZero() {
		cookie.Expires = sess.ExpiresAt
	}
	http.SetCookie(w, cookie)
	writeJSON(w, status, authStatus{
		State:       s.store.AuthState().String(),
		Email:       sess.User.Email,
		AccessToken: sess.AccessToken,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.SignIn(r.Context(), sanitizeInput(c.Email), c.Password); err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Operator signed in", applog.FieldAuthState, s.store.AuthState().String())
	s.grantSession(w, r, http.StatusOK)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.store.SignUp(r.Context(), sanitizeInput(c.Email), c.Password)
	if err != nil {
		var aerr *state.AuthError
		if errors.As(err, &aerr) {
			writeJSONError(w, http.StatusUnprocessableEntity, aerr.Message)
			return
		}
		writeError(w, r, err)
		return
	}
	if out.ConfirmationRequired {
		writeJSON(w, http.StatusAccepted, map[string]any{
			"confirmationRequired": true,
			"message":              "Verifique seu e-mail para confirmar o cadastro.",
		})
		return
	}
	s.grantSession(w, r, http.StatusCreated)
}

// handleLogout always ends the local session; a backend failure is still
// reported.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, r)
	if err := s.store.SignOut(r.Context()); err != nil {
		var aerr *state.AuthError
		if errors.As(err, &aerr) {
			writeJSONError(w, http.StatusBadGateway, aerr.Message)
			return
		}
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentAuth(r))
}
