// Package remote defines the boundary to the hosted backend that persists
// families and ledger entries and authenticates the operator.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Auth errors carry the backend's own wording so callers can match on it.
var (
	ErrNotFound           = errors.New("row not found")
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrUserExists         = errors.New("User already registered")
	ErrWeakPassword       = errors.New("Password should be at least 6 characters")
	ErrNoSession          = errors.New("Auth session missing")
	ErrEmailNotConfirmed  = errors.New("Email not confirmed")
)

const MinPasswordLength = 6

// Auth event names emitted to session listeners.
const (
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventTokenRefreshed = "TOKEN_REFRESHED"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	AccessToken string    `json:"access_token"`
	User        User      `json:"user"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// SignUpResult may hold a user without a session: the account exists but
// must be confirmed by email before signing in.
type SignUpResult struct {
	User    *User
	Session *Session
}

// AuthEvent reports a session change. Session is nil after sign-out.
type AuthEvent struct {
	Event   string
	Session *Session
}

type AuthListener func(AuthEvent)

// FamilyTable is the families table. Reads are ordered by name ascending.
// UpdateFamily writes every column except history, which only
// UpdateFamilyHistory changes.
type FamilyTable interface {
	ListFamilies(ctx context.Context) ([]FamilyRow, error)
	InsertFamily(ctx context.Context, row FamilyRow) error
	UpdateFamily(ctx context.Context, row FamilyRow) error
	UpdateFamilyHistory(ctx context.Context, id string, history json.RawMessage) error
	DeleteFamily(ctx context.Context, id string) error
}

// TransactionTable is the financial_records table. Reads are ordered by
// date descending.
type TransactionTable interface {
	ListTransactions(ctx context.Context) ([]TransactionRow, error)
	InsertTransaction(ctx context.Context, row TransactionRow) error
	DeleteTransaction(ctx context.Context, id string) error
}

type Auth interface {
	GetCurrentSession(ctx context.Context) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (SignUpResult, error)
	SignOut(ctx context.Context) error
	// OnAuthStateChange registers fn for session changes until the returned
	// function is called.
	OnAuthStateChange(fn AuthListener) (unsubscribe func())
}

// Backend is everything the application needs from the hosted service.
type Backend interface {
	FamilyTable
	TransactionTable
	Auth
}
