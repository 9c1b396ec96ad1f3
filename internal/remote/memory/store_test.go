package memory

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gestaosocial/internal/remote"
)

func TestFamiliesOrderedByName(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.InsertFamily(ctx, remote.FamilyRow{ID: "2", Name: "Família Souza"}))
	require.NoError(t, s.InsertFamily(ctx, remote.FamilyRow{ID: "1", Name: "Família Almeida"}))

	rows, err := s.ListFamilies(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].ID)

	assert.Error(t, s.InsertFamily(ctx, remote.FamilyRow{ID: "1"}))
	assert.ErrorIs(t, s.UpdateFamily(ctx, remote.FamilyRow{ID: "x"}), remote.ErrNotFound)
	require.NoError(t, s.UpdateFamilyHistory(ctx, "1", json.RawMessage(`[]`)))
	require.NoError(t, s.DeleteFamily(ctx, "2"))

	rows, _ = s.ListFamilies(ctx)
	assert.Len(t, rows, 1)
}

func TestUpdateFamilyKeepsHistory(t *testing.T) {
	s := New()
	ctx := context.Background()
	history := json.RawMessage(`[{"id":"h1","type":"Visit"}]`)
	require.NoError(t, s.InsertFamily(ctx, remote.FamilyRow{ID: "1", Name: "Família Almeida", History: history}))

	require.NoError(t, s.UpdateFamily(ctx, remote.FamilyRow{ID: "1", Name: "Família Almeida Lima", History: json.RawMessage(`[]`)}))

	rows, err := s.ListFamilies(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Família Almeida Lima", rows[0].Name)
	assert.JSONEq(t, string(history), string(rows[0].History))
}

func TestTransactionsOrderedByDateDesc(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.SeedTransactions(
		remote.TransactionRow{ID: "a", Date: "2024-01-01", Amount: decimal.NewFromInt(1)},
		remote.TransactionRow{ID: "b", Date: "2024-03-01", Amount: decimal.NewFromInt(2)},
	)
	rows, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", rows[0].ID)

	require.NoError(t, s.DeleteTransaction(ctx, "b"))
	rows, _ = s.ListTransactions(ctx)
	assert.Len(t, rows, 1)
}

func TestFailOnAndDelay(t *testing.T) {
	s := New()
	boom := errors.New("permission denied")
	s.FailOn(OpInsertTransaction, boom)
	assert.ErrorIs(t, s.InsertTransaction(context.Background(), remote.TransactionRow{ID: "t"}), boom)
	s.FailOn(OpInsertTransaction, nil)
	assert.NoError(t, s.InsertTransaction(context.Background(), remote.TransactionRow{ID: "t"}))

	s.Delay(OpGetSession, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.GetCurrentSession(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, s.Calls(), OpGetSession)
}

func TestSignInEmitsEvents(t *testing.T) {
	s := New(WithUser("Ana@Example.com", "secret1"))
	var events []string
	unsubscribe := s.OnAuthStateChange(func(ev remote.AuthEvent) { events = append(events, ev.Event) })

	_, err := s.SignInWithPassword(context.Background(), "ana@example.com", "wrong")
	assert.ErrorIs(t, err, remote.ErrInvalidCredentials)

	sess, err := s.SignInWithPassword(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", sess.User.Email)

	current, err := s.GetCurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess.AccessToken, current.AccessToken)

	require.NoError(t, s.SignOut(context.Background()))
	unsubscribe()
	s.ExpireSession()
	assert.Equal(t, []string{remote.EventSignedIn, remote.EventSignedOut}, events)
}

func TestSignUp(t *testing.T) {
	s := New(WithConfirmation())
	ctx := context.Background()

	_, err := s.SignUp(ctx, "bia@example.com", "123")
	assert.ErrorIs(t, err, remote.ErrWeakPassword)

	res, err := s.SignUp(ctx, "bia@example.com", "123456")
	require.NoError(t, err)
	assert.NotNil(t, res.User)
	assert.Nil(t, res.Session)

	_, err = s.SignUp(ctx, "bia@example.com", "123456")
	assert.ErrorIs(t, err, remote.ErrUserExists)

	_, err = s.SignInWithPassword(ctx, "bia@example.com", "123456")
	assert.ErrorIs(t, err, remote.ErrEmailNotConfirmed)

	s.Confirm("bia@example.com")
	_, err = s.SignInWithPassword(ctx, "bia@example.com", "123456")
	assert.NoError(t, err)
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	rows, _ := s.ListFamilies(context.Background())
	assert.Empty(t, rows)

	path := filepath.Join(dir, "seed.json")
	seed := `{"families":[{"id":"f1","name":"Família Lima","responsibleName":"Carla","status":"Active","members":[],"history":[]}],
		"transactions":[{"id":"t1","date":"2024-01-02","type":"Income","category":"Ofertas","amount":10.5,"description":"","responsible":"Ana"}]}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	s, err = NewFromFile(path)
	require.NoError(t, err)
	rows, _ = s.ListFamilies(context.Background())
	require.Len(t, rows, 1)
	txs, _ := s.ListTransactions(context.Background())
	require.Len(t, txs, 1)
	assert.Equal(t, "10.5", txs[0].Amount.String())
}
