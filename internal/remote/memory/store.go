// Package memory is an in-process remote.Backend used for local runs and
// tests. Individual operations can be made to fail or stall.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gestaosocial/internal/export"
	"gestaosocial/internal/remote"
)

type Op string

const (
	OpListFamilies        Op = "ListFamilies"
	OpInsertFamily        Op = "InsertFamily"
	OpUpdateFamily        Op = "UpdateFamily"
	OpUpdateFamilyHistory Op = "UpdateFamilyHistory"
	OpDeleteFamily        Op = "DeleteFamily"
	OpListTransactions    Op = "ListTransactions"
	OpInsertTransaction   Op = "InsertTransaction"
	OpDeleteTransaction   Op = "DeleteTransaction"
	OpGetSession          Op = "GetCurrentSession"
	OpSignIn              Op = "SignInWithPassword"
	OpSignUp              Op = "SignUp"
	OpSignOut             Op = "SignOut"
)

const sessionTTL = time.Hour

type Store struct {
	mu       sync.Mutex
	families []remote.FamilyRow
	txs      []remote.TransactionRow
	users    map[string]user
	session  *remote.Session

	listeners remote.Listeners

	requireConfirmation bool
	failures            map[Op]error
	delays              map[Op]time.Duration
	calls               []Op
}

type user struct {
	id        string
	password  string
	confirmed bool
}

type Option func(*Store)

// WithConfirmation makes sign-up return a user without a session until
// Confirm is called for that email.
func WithConfirmation() Option {
	return func(s *Store) { s.requireConfirmation = true }
}

func WithUser(email, password string) Option {
	return func(s *Store) {
		s.users[normalizeEmail(email)] = user{id: uuid.NewString(), password: password, confirmed: true}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		users:    map[string]user{},
		failures: map[Op]error{},
		delays:   map[Op]time.Duration{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewFromFile seeds the store from a backup JSON file. A missing file
// yields an empty store.
func NewFromFile(path string, opts ...Option) (*Store, error) {
	s := New(opts...)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var b export.Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode seed %s: %w", path, err)
	}
	for _, f := range b.Families {
		row, err := remote.FamilyToRow(f)
		if err != nil {
			return nil, err
		}
		s.families = append(s.families, row)
	}
	for _, t := range b.Transactions {
		s.txs = append(s.txs, remote.TransactionToRow(t))
	}
	return s, nil
}

// FailOn makes every later call of op return err. A nil err clears it.
func (s *Store) FailOn(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Delay stalls op for d or until its context ends.
func (s *Store) Delay(op Op, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[op] = d
}

func (s *Store) Calls() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

func (s *Store) SeedFamilies(rows ...remote.FamilyRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.families = append(s.families, rows...)
}

func (s *Store) SeedTransactions(rows ...remote.TransactionRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, rows...)
}

// Confirm marks a pending sign-up as confirmed.
func (s *Store) Confirm(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(email)
	if u, ok := s.users[key]; ok {
		u.confirmed = true
		s.users[key] = u
	}
}

// ExpireSession drops the current session and notifies listeners as the
// hosted service does when a refresh fails.
func (s *Store) ExpireSession() {
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	s.listeners.Emit(remote.AuthEvent{Event: remote.EventSignedOut})
}

// RefreshSession issues a new token for the current session.
func (s *Store) RefreshSession() {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return
	}
	sess := newSession(s.session.User)
	s.session = &sess
	s.mu.Unlock()
	s.listeners.Emit(remote.AuthEvent{Event: remote.EventTokenRefreshed, Session: &sess})
}

// enter records the call and applies the configured delay and failure.
func (s *Store) enter(ctx context.Context, op Op) error {
	s.mu.Lock()
	s.calls = append(s.calls, op)
	delay := s.delays[op]
	err := s.failures[op]
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func (s *Store) ListFamilies(ctx context.Context) ([]remote.FamilyRow, error) {
	if err := s.enter(ctx, OpListFamilies); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.families)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) InsertFamily(ctx context.Context, row remote.FamilyRow) error {
	if err := s.enter(ctx, OpInsertFamily); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.familyIndex(row.ID) >= 0 {
		return fmt.Errorf("duplicate key value violates unique constraint: id %s", row.ID)
	}
	s.families = append(s.families, row)
	return nil
}

func (s *Store) UpdateFamily(ctx context.Context, row remote.FamilyRow) error {
	if err := s.enter(ctx, OpUpdateFamily); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.familyIndex(row.ID)
	if i < 0 {
		return remote.ErrNotFound
	}
	row.History = s.families[i].History
	s.families[i] = row
	return nil
}

func (s *Store) UpdateFamilyHistory(ctx context.Context, id string, history json.RawMessage) error {
	if err := s.enter(ctx, OpUpdateFamilyHistory); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.familyIndex(id)
	if i < 0 {
		return remote.ErrNotFound
	}
	s.families[i].History = slices.Clone(history)
	return nil
}

func (s *Store) DeleteFamily(ctx context.Context, id string) error {
	if err := s.enter(ctx, OpDeleteFamily); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.familyIndex(id); i >= 0 {
		s.families = slices.Delete(s.families, i, i+1)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]remote.TransactionRow, error) {
	if err := s.enter(ctx, OpListTransactions); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.txs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *Store) InsertTransaction(ctx context.Context, row remote.TransactionRow) error {
	if err := s.enter(ctx, OpInsertTransaction); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txs {
		if t.ID == row.ID {
			return fmt.Errorf("duplicate key value violates unique constraint: id %s", row.ID)
		}
	}
	s.txs = append(s.txs, row)
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.enter(ctx, OpDeleteTransaction); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = slices.DeleteFunc(s.txs, func(t remote.TransactionRow) bool { return t.ID == id })
	return nil
}

func (s *Store) GetCurrentSession(ctx context.Context) (*remote.Session, error) {
	if err := s.enter(ctx, OpGetSession); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, nil
	}
	sess := *s.session
	return &sess, nil
}

func (s *Store) SignInWithPassword(ctx context.Context, email, password string) (*remote.Session, error) {
	if err := s.enter(ctx, OpSignIn); err != nil {
		return nil, err
	}
	s.mu.Lock()
	key := normalizeEmail(email)
	u, ok := s.users[key]
	if !ok || u.password != password {
		s.mu.Unlock()
		return nil, remote.ErrInvalidCredentials
	}
	if !u.confirmed {
		s.mu.Unlock()
		return nil, remote.ErrEmailNotConfirmed
	}
	sess := newSession(remote.User{ID: u.id, Email: key})
	s.session = &sess
	s.mu.Unlock()

	s.listeners.Emit(remote.AuthEvent{Event: remote.EventSignedIn, Session: &sess})
	return &sess, nil
}

func (s *Store) SignUp(ctx context.Context, email, password string) (remote.SignUpResult, error) {
	if err := s.enter(ctx, OpSignUp); err != nil {
		return remote.SignUpResult{}, err
	}
	if len(password) < remote.MinPasswordLength {
		return remote.SignUpResult{}, remote.ErrWeakPassword
	}
	s.mu.Lock()
	key := normalizeEmail(email)
	if _, ok := s.users[key]; ok {
		s.mu.Unlock()
		return remote.SignUpResult{}, remote.ErrUserExists
	}
	u := user{id: uuid.NewString(), password: password, confirmed: !s.requireConfirmation}
	s.users[key] = u
	account := remote.User{ID: u.id, Email: key}
	if s.requireConfirmation {
		s.mu.Unlock()
		return remote.SignUpResult{User: &account}, nil
	}
	sess := newSession(account)
	s.session = &sess
	s.mu.Unlock()

	s.listeners.Emit(remote.AuthEvent{Event: remote.EventSignedIn, Session: &sess})
	return remote.SignUpResult{User: &account, Session: &sess}, nil
}

func (s *Store) SignOut(ctx context.Context) error {
	if err := s.enter(ctx, OpSignOut); err != nil {
		return err
	}
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	s.listeners.Emit(remote.AuthEvent{Event: remote.EventSignedOut})
	return nil
}

func (s *Store) OnAuthStateChange(fn remote.AuthListener) func() {
	return s.listeners.Add(fn)
}

func (s *Store) familyIndex(id string) int {
	return slices.IndexFunc(s.families, func(r remote.FamilyRow) bool { return r.ID == id })
}

func newSession(u remote.User) remote.Session {
	return remote.Session{
		AccessToken: uuid.NewString(),
		User:        u,
		ExpiresAt:   time.Now().Add(sessionTTL),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
