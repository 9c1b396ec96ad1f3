// Package state holds the in-memory snapshot of families and ledger
// entries for the signed-in operator and mediates every change through an
// optimistic write against the remote backend.
//
// A mutation is applied locally first, then written remotely. When the
// remote write fails the local change is compensated and the caller gets a
// *WriteError carrying the remote error text.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gestaosocial/internal/core"
	"gestaosocial/internal/remote"
)

const DefaultSessionTimeout = 4 * time.Second

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Notifier receives the user-facing message of a failed write.
type Notifier func(msg string)

type Store struct {
	backend        remote.Backend
	log            *slog.Logger
	notify         Notifier
	sessionTimeout time.Duration

	mu           sync.RWMutex
	auth         AuthState
	session      *remote.Session
	generation   uint64
	families     []core.Family
	transactions []core.Transaction
	theme        Theme
	revision     uint64

	unsubscribe func()
}

type Option func(*Store)

func WithSessionTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.sessionTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notify = n }
}

func New(backend remote.Backend, opts ...Option) *Store {
	s := &Store{
		backend:        backend,
		log:            slog.Default(),
		notify:         func(string) {},
		sessionTimeout: DefaultSessionTimeout,
		families:       []core.Family{},
		transactions:   []core.Transaction{},
		theme:          ThemeLight,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Close stops listening for session changes.
func (s *Store) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Families returns a copy of the families in display order.
func (s *Store) Families() []core.Family {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Family, len(s.families))
	for i, f := range s.families {
		out[i] = f.Clone()
	}
	return out
}

func (s *Store) Family(id string) (core.Family, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.familyIndex(id); i >= 0 {
		return s.families[i].Clone(), true
	}
	return core.Family{}, false
}

// Transactions returns a copy of the ledger, newest first.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transactions)
}

// Revision changes whenever either collection changes.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Store) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

func (s *Store) ToggleTheme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.theme == ThemeDark {
		s.theme = ThemeLight
	} else {
		s.theme = ThemeDark
	}
	return s.theme
}

// Reload replaces both collections with the remote contents. A failed
// fetch is logged and leaves its collection unchanged; the returned error
// joins both failures.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	var (
		g            errgroup.Group
		families     []core.Family
		transactions []core.Transaction
		famErr       error
		txErr        error
	)
	g.Go(func() error {
		families, famErr = s.fetchFamilies(ctx)
		return nil
	})
	g.Go(func() error {
		transactions, txErr = s.fetchTransactions(ctx)
		return nil
	})
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.auth != AuthAuthenticated {
		s.log.InfoContext(ctx, "Discarding reload for an ended session")
		return nil
	}
	if famErr == nil {
		s.families = families
	}
	if txErr == nil {
		s.transactions = transactions
	}
	s.revision++
	return errors.Join(famErr, txErr)
}

func (s *Store) reloadFamilies(ctx context.Context) {
	families, err := s.fetchFamilies(ctx)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.families = families
	s.revision++
}

func (s *Store) fetchFamilies(ctx context.Context) ([]core.Family, error) {
	rows, err := s.backend.ListFamilies(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load families", "error", err)
		return nil, fmt.Errorf("load families: %w", err)
	}
	out := make([]core.Family, 0, len(rows))
	for _, row := range rows {
		f, err := remote.FamilyFromRow(row)
		if err != nil {
			s.log.WarnContext(ctx, "Dropping unreadable family row", "id", row.ID, "error", err)
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Store) fetchTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := s.backend.ListTransactions(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load transactions", "error", err)
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := remote.TransactionFromRow(row)
		if err != nil {
			s.log.WarnContext(ctx, "Dropping unreadable transaction row", "id", row.ID, "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// familyIndex must be called with s.mu held.
func (s *Store) familyIndex(id string) int {
	return slices.IndexFunc(s.families, func(f core.Family) bool { return f.ID == id })
}

// transactionIndex must be called with s.mu held.
func (s *Store) transactionIndex(id string) int {
	return slices.IndexFunc(s.transactions, func(t core.Transaction) bool { return t.ID == id })
}
