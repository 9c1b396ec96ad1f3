package state

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gestaosocial/internal/core"
	"gestaosocial/internal/remote"
)

type Op string

const (
	OpAddFamily         Op = "addFamily"
	OpUpdateFamily      Op = "updateFamily"
	OpRemoveFamily      Op = "removeFamily"
	OpAddHistoryRecord  Op = "addHistoryRecord"
	OpAddTransaction    Op = "addTransaction"
	OpRemoveTransaction Op = "removeTransaction"
)

var (
	ErrFamilyNotFound      = errors.New("family not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// WriteError reports a remote write that failed after the local change was
// compensated.
type WriteError struct {
	Op  Op
	Err error
}

func (e *WriteError) Error() string { return "Erro ao salvar: " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }

// AddFamily puts f first in the list and inserts it remotely. On failure f
// is removed again.
func (s *Store) AddFamily(ctx context.Context, f core.Family) error {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return err
	}
	f = f.Clone()

	s.mu.Lock()
	s.families = slices.Insert(s.families, 0, f)
	s.revision++
	s.mu.Unlock()

	err := s.write(ctx, OpAddFamily, func(ctx context.Context) error {
		row, err := remote.FamilyToRow(f)
		if err != nil {
			return err
		}
		return s.backend.InsertFamily(ctx, row)
	})
	if err == nil {
		return nil
	}

	s.mu.Lock()
	if i := s.familyIndex(f.ID); i >= 0 {
		s.families = slices.Delete(s.families, i, i+1)
		s.revision++
	}
	s.mu.Unlock()
	return s.failed(ctx, OpAddFamily, err)
}

// UpdateFamily replaces the profile of the family with the same id. The
// history is kept as stored since it only grows through AddHistoryRecord,
// and a blank code or avatar keeps the stored one. On failure the whole
// family list is reloaded from the backend.
func (s *Store) UpdateFamily(ctx context.Context, f core.Family) error {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return err
	}
	f = f.Clone()

	s.mu.Lock()
	i := s.familyIndex(f.ID)
	if i < 0 {
		s.mu.Unlock()
		return ErrFamilyNotFound
	}
	cur := s.families[i]
	f.History = append(make([]core.HistoryRecord, 0, len(cur.History)), cur.History...)
	if f.Code == "" {
		f.Code = cur.Code
	}
	if f.AvatarURL == "" {
		f.AvatarURL = cur.AvatarURL
	}
	s.families[i] = f
	s.revision++
	s.mu.Unlock()

	err := s.write(ctx, OpUpdateFamily, func(ctx context.Context) error {
		row, err := remote.FamilyToRow(f)
		if err != nil {
			return err
		}
		return s.backend.UpdateFamily(ctx, row)
	})
	if err == nil {
		return nil
	}

	s.reloadFamilies(ctx)
	return s.failed(ctx, OpUpdateFamily, err)
}

// RemoveFamily drops the family and deletes it remotely. On failure it is
// put back where it was.
func (s *Store) RemoveFamily(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.familyIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrFamilyNotFound
	}
	removed := s.families[i]
	s.families = slices.Delete(s.families, i, i+1)
	s.revision++
	s.mu.Unlock()

	err := s.write(ctx, OpRemoveFamily, func(ctx context.Context) error {
		return s.backend.DeleteFamily(ctx, id)
	})
	if err == nil {
		return nil
	}

	s.mu.Lock()
	s.families = slices.Insert(s.families, min(i, len(s.families)), removed)
	s.revision++
	s.mu.Unlock()
	return s.failed(ctx, OpRemoveFamily, err)
}

// AddHistoryRecord puts rec first in the family's history and writes the
// whole history column. On failure rec is removed again.
func (s *Store) AddHistoryRecord(ctx context.Context, familyID string, rec core.HistoryRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	i := s.familyIndex(familyID)
	if i < 0 {
		s.mu.Unlock()
		return ErrFamilyNotFound
	}
	history := slices.Insert(slices.Clone(s.families[i].History), 0, rec)
	s.families[i].History = history
	s.revision++
	s.mu.Unlock()

	err := s.write(ctx, OpAddHistoryRecord, func(ctx context.Context) error {
		raw, err := remote.HistoryJSON(history)
		if err != nil {
			return err
		}
		return s.backend.UpdateFamilyHistory(ctx, familyID, raw)
	})
	if err == nil {
		return nil
	}

	s.mu.Lock()
	if i := s.familyIndex(familyID); i >= 0 {
		f := &s.families[i]
		f.History = slices.DeleteFunc(slices.Clone(f.History), func(r core.HistoryRecord) bool { return r.ID == rec.ID })
		s.revision++
	}
	s.mu.Unlock()
	return s.failed(ctx, OpAddHistoryRecord, err)
}

// AddTransaction puts t first in the ledger and inserts it remotely. On
// failure t is removed again.
func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.transactions = slices.Insert(s.transactions, 0, t)
	s.revision++
	s.mu.Unlock()

	err := s.write(ctx, OpAddTransaction, func(ctx context.Context) error {
		return s.backend.InsertTransaction(ctx, remote.TransactionToRow(t))
	})
	if err == nil {
		return nil
	}

	s.mu.Lock()
	if i := s.transactionIndex(t.ID); i >= 0 {
		s.transactions = slices.Delete(s.transactions, i, i+1)
		s.revision++
	}
	s.mu.Unlock()
	return s.failed(ctx, OpAddTransaction, err)
}

// RemoveTransaction drops the entry and deletes it remotely. On failure it
// is put back where it was.
func (s *Store) RemoveTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.transactionIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrTransactionNotFound
	}
	removed := s.transactions[i]
	s.transactions = slices.Delete(s.transactions, i, i+1)
	s.revision++
	s.mu.Unlock()

	err := s.write(ctx, OpRemoveTransaction, func(ctx context.Context) error {
		return s.backend.DeleteTransaction(ctx, id)
	})
	if err == nil {
		return nil
	}

	s.mu.Lock()
	s.transactions = slices.Insert(s.transactions, min(i, len(s.transactions)), removed)
	s.revision++
	s.mu.Unlock()
	return s.failed(ctx, OpRemoveTransaction, err)
}

// write runs a remote call without holding the lock. A panic inside it is
// reported as an ordinary failure.
func (s *Store) write(ctx context.Context, op Op, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.ErrorContext(ctx, "Panic during remote write", "operation", string(op), "panic", r)
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()
	return fn(ctx)
}

func (s *Store) failed(ctx context.Context, op Op, err error) error {
	werr := &WriteError{Op: op, Err: err}
	s.log.ErrorContext(ctx, "Remote write failed, local change reverted", "operation", string(op), "error", err)
	if s.notify != nil {
		s.notify(werr.Error())
	}
	return werr
}
