// Package storage is a SQLite implementation of the remote backend, used
// when the service runs self-hosted instead of against the hosted service.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"gestaosocial/internal/remote"

	_ "modernc.org/sqlite"
)

const defaultSessionTTL = 24 * time.Hour

var ErrMissingSecret = errors.New("jwt secret is required")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries

	secret              []byte
	sessionTTL          time.Duration
	requireConfirmation bool
	bcryptCost          int
	now                 func() time.Time

	listeners remote.Listeners
}

type Option func(*SQLiteRepository)

func WithJWTSecret(secret string) Option {
	return func(r *SQLiteRepository) { r.secret = []byte(secret) }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(r *SQLiteRepository) {
		if ttl > 0 {
			r.sessionTTL = ttl
		}
	}
}

// WithConfirmation leaves new accounts unconfirmed until ConfirmUser.
func WithConfirmation(required bool) Option {
	return func(r *SQLiteRepository) { r.requireConfirmation = required }
}

func WithBcryptCost(cost int) Option {
	return func(r *SQLiteRepository) { r.bcryptCost = cost }
}

func withClock(now func() time.Time) Option {
	return func(r *SQLiteRepository) { r.now = now }
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	repo := &SQLiteRepository{
		sessionTTL: defaultSessionTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
	for _, o := range opts {
		o(repo)
	}
	if len(repo.secret) == 0 {
		return nil, ErrMissingSecret
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo.db = db
	repo.queries = New(db)
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListFamilies(ctx context.Context) ([]remote.FamilyRow, error) {
	rows, err := r.queries.ListFamilies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	out := make([]remote.FamilyRow, 0, len(rows))
	for _, f := range rows {
		out = append(out, familyRow(f))
	}
	return out, nil
}

func (r *SQLiteRepository) InsertFamily(ctx context.Context, row remote.FamilyRow) error {
	if err := r.queries.InsertFamily(ctx, familyParams(row)); err != nil {
		return fmt.Errorf("insert family: %w", err)
	}
	slog.InfoContext(ctx, "Family saved to SQLite", "id", row.ID, "code", row.Code)
	return nil
}

func (r *SQLiteRepository) UpdateFamily(ctx context.Context, row remote.FamilyRow) error {
	n, err := r.queries.UpdateFamily(ctx, familyParams(row))
	if err != nil {
		return fmt.Errorf("update family: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update family %s: %w", row.ID, remote.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) UpdateFamilyHistory(ctx context.Context, id string, history json.RawMessage) error {
	n, err := r.queries.UpdateFamilyHistory(ctx, id, jsonColumn(history))
	if err != nil {
		return fmt.Errorf("update family history: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update family history %s: %w", id, remote.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteFamily(ctx context.Context, id string) error {
	if err := r.queries.DeleteFamily(ctx, id); err != nil {
		return fmt.Errorf("delete family: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]remote.TransactionRow, error) {
	rows, err := r.queries.ListFinancialRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list financial records: %w", err)
	}
	out := make([]remote.TransactionRow, 0, len(rows))
	for _, rec := range rows {
		amount, err := decimal.NewFromString(rec.Amount)
		if err != nil {
			slog.WarnContext(ctx, "Skipping financial record with bad amount", "id", rec.ID, "amount", rec.Amount)
			continue
		}
		out = append(out, remote.TransactionRow{
			ID:          rec.ID,
			Date:        rec.Date,
			Type:        rec.Type,
			Category:    rec.Category,
			Amount:      amount,
			Description: rec.Description,
			Responsible: rec.Responsible,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, row remote.TransactionRow) error {
	err := r.queries.InsertFinancialRecord(ctx, FinancialRecord{
		ID:          row.ID,
		Date:        row.Date,
		Type:        row.Type,
		Category:    row.Category,
		Amount:      row.Amount.String(),
		Description: row.Description,
		Responsible: row.Responsible,
	})
	if err != nil {
		return fmt.Errorf("insert financial record: %w", err)
	}
	slog.InfoContext(ctx, "Financial record saved to SQLite", "id", row.ID, "type", row.Type, "amount", row.Amount.String())
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	if err := r.queries.DeleteFinancialRecord(ctx, id); err != nil {
		return fmt.Errorf("delete financial record: %w", err)
	}
	return nil
}

func familyParams(row remote.FamilyRow) Family {
	return Family{
		ID:                 row.ID,
		Code:               row.Code,
		Name:               row.Name,
		ResponsibleName:    row.ResponsibleName,
		AvatarURL:          row.AvatarURL,
		Status:             row.Status,
		StatusDescription:  row.StatusDescription,
		Address:            row.Address,
		Neighborhood:       row.Neighborhood,
		Phone:              row.Phone,
		Whatsapp:           row.WhatsApp,
		ChurchMember:       row.ChurchMember,
		Congregation:       row.Congregation,
		Income:             row.Income,
		SocialClass:        row.SocialClass,
		ProfessionalStatus: row.ProfessionalStatus,
		MainNeed:           row.MainNeed,
		Observations:       row.Observations,
		Members:            jsonColumn(row.Members),
		History:            jsonColumn(row.History),
	}
}

func familyRow(f Family) remote.FamilyRow {
	return remote.FamilyRow{
		ID:                 f.ID,
		Code:               f.Code,
		Name:               f.Name,
		ResponsibleName:    f.ResponsibleName,
		AvatarURL:          f.AvatarURL,
		Status:             f.Status,
		StatusDescription:  f.StatusDescription,
		Address:            f.Address,
		Neighborhood:       f.Neighborhood,
		Phone:              f.Phone,
		WhatsApp:           f.Whatsapp,
		ChurchMember:       f.ChurchMember,
		Congregation:       f.Congregation,
		Income:             f.Income,
		SocialClass:        f.SocialClass,
		ProfessionalStatus: f.ProfessionalStatus,
		MainNeed:           f.MainNeed,
		Observations:       f.Observations,
		Members:            json.RawMessage(f.Members),
		History:            json.RawMessage(f.History),
	}
}

func jsonColumn(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "[]"
	}
	return string(raw)
}
