package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gestaosocial/internal/remote"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *SQLiteRepository) GetCurrentSession(ctx context.Context) (*remote.Session, error) {
	row, err := r.queries.GetLatestSession(ctx, r.now().Unix())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if _, err := r.parseToken(row.Token); err != nil {
		slog.WarnContext(ctx, "Discarding stored session with invalid token", "user_id", row.UserID, "error", err)
		return nil, nil
	}
	return &remote.Session{
		AccessToken: row.Token,
		User:        remote.User{ID: row.UserID, Email: row.Email},
		ExpiresAt:   time.Unix(row.ExpiresAt, 0),
	}, nil
}

func (r *SQLiteRepository) SignInWithPassword(ctx context.Context, email, password string) (*remote.Session, error) {
	u, err := r.queries.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, remote.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, remote.ErrInvalidCredentials
	}
	if !u.Confirmed {
		return nil, remote.ErrEmailNotConfirmed
	}
	sess, err := r.issueSession(ctx, remote.User{ID: u.ID, Email: u.Email})
	if err != nil {
		return nil, err
	}
	r.listeners.Emit(remote.AuthEvent{Event: remote.EventSignedIn, Session: sess})
	return sess, nil
}

func (r *SQLiteRepository) SignUp(ctx context.Context, email, password string) (remote.SignUpResult, error) {
	u, err := r.createUser(ctx, email, password, !r.requireConfirmation)
	if err != nil {
		return remote.SignUpResult{}, err
	}
	if r.requireConfirmation {
		return remote.SignUpResult{User: &u}, nil
	}
	sess, err := r.issueSession(ctx, u)
	if err != nil {
		return remote.SignUpResult{}, err
	}
	r.listeners.Emit(remote.AuthEvent{Event: remote.EventSignedIn, Session: sess})
	return remote.SignUpResult{User: &u, Session: sess}, nil
}

func (r *SQLiteRepository) SignOut(ctx context.Context) error {
	if err := r.queries.DeleteSessions(ctx); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	r.listeners.Emit(remote.AuthEvent{Event: remote.EventSignedOut})
	return nil
}

func (r *SQLiteRepository) OnAuthStateChange(fn remote.AuthListener) func() {
	return r.listeners.Add(fn)
}

// ConfirmUser activates an account created while confirmation is required.
func (r *SQLiteRepository) ConfirmUser(ctx context.Context, email string) error {
	n, err := r.queries.ConfirmUser(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("confirm user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("confirm user %s: %w", email, remote.ErrNotFound)
	}
	return nil
}

// EnsureUser creates a confirmed account unless the email is already taken.
func (r *SQLiteRepository) EnsureUser(ctx context.Context, email, password string) error {
	_, err := r.createUser(ctx, email, password, true)
	if errors.Is(err, remote.ErrUserExists) {
		return nil
	}
	return err
}

// PruneSessions removes expired sessions and returns how many were dropped.
func (r *SQLiteRepository) PruneSessions(ctx context.Context) (int64, error) {
	n, err := r.queries.DeleteExpiredSessions(ctx, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) createUser(ctx context.Context, email, password string, confirmed bool) (remote.User, error) {
	email = normalizeEmail(email)
	if len(password) < remote.MinPasswordLength {
		return remote.User{}, remote.ErrWeakPassword
	}
	_, err := r.queries.GetUserByEmail(ctx, email)
	if err == nil {
		return remote.User{}, remote.ErrUserExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return remote.User{}, fmt.Errorf("get user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.bcryptCost)
	if err != nil {
		return remote.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := remote.User{ID: uuid.NewString(), Email: email}
	if err := r.queries.CreateUser(ctx, AuthUser{ID: u.ID, Email: email, PasswordHash: string(hash), Confirmed: confirmed}); err != nil {
		return remote.User{}, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "User created", "user_id", u.ID, "confirmed", confirmed)
	return u, nil
}

func (r *SQLiteRepository) issueSession(ctx context.Context, u remote.User) (*remote.Session, error) {
	now := r.now()
	expires := now.Add(r.sessionTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   expires.Unix(),
		"jti":   uuid.NewString(),
	})
	signed, err := token.SignedString(r.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	if _, err := r.queries.DeleteExpiredSessions(ctx, now.Unix()); err != nil {
		slog.WarnContext(ctx, "Failed to prune expired sessions", "error", err)
	}
	if err := r.queries.CreateSession(ctx, signed, u.ID, expires.Unix()); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &remote.Session{AccessToken: signed, User: u, ExpiresAt: time.Unix(expires.Unix(), 0)}, nil
}

func (r *SQLiteRepository) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	}, jwt.WithTimeFunc(r.now))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
