// Package worker keeps the spreadsheet roster mirror in step with the
// families table.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gestaosocial/internal/amqp"
	"gestaosocial/internal/core"
	"gestaosocial/internal/remote"
	"gestaosocial/internal/sheets"
)

// RosterWorker rewrites the mirrored roster whenever a family row changes.
// Every sync re-reads the whole table so a lost or reordered event is
// repaired by the next one.
type RosterWorker struct {
	families remote.FamilyTable
	sheet    sheets.RosterWriter
	log      *slog.Logger

	mu       sync.Mutex
	lastSync time.Time
}

func NewRosterWorker(families remote.FamilyTable, sheet sheets.RosterWriter, logger *slog.Logger) *RosterWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RosterWorker{families: families, sheet: sheet, log: logger}
}

// HandleChange processes one change event from AMQP. Ledger events are
// acknowledged without work.
func (w *RosterWorker) HandleChange(ctx context.Context, ev *amqp.ChangeEvent) error {
	if ev.Table != amqp.TableFamilies {
		w.log.DebugContext(ctx, "Ignoring change event", "table", ev.Table, "op", ev.Op, "id", ev.ID)
		return nil
	}
	w.log.InfoContext(ctx, "Processing family change", "op", ev.Op, "id", ev.ID, "timestamp", ev.Timestamp)
	return w.SyncRoster(ctx)
}

// SyncRoster lists every family and rewrites the mirror. Rows that cannot be
// mapped are skipped with a warning.
func (w *RosterWorker) SyncRoster(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.families.ListFamilies(ctx)
	if err != nil {
		return fmt.Errorf("list families: %w", err)
	}
	families := make([]core.Family, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		f, err := remote.FamilyFromRow(row)
		if err != nil {
			w.log.WarnContext(ctx, "Skipping unmappable family row", "id", row.ID, "error", err)
			skipped++
			continue
		}
		families = append(families, f)
	}

	if err := w.sheet.WriteRoster(ctx, families); err != nil {
		return fmt.Errorf("write roster: %w", err)
	}
	w.lastSync = time.Now()
	w.log.InfoContext(ctx, "Roster synced", "families", len(families), "skipped", skipped)
	return nil
}

// LastSync reports when the mirror was last written successfully.
func (w *RosterWorker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync
}

// RunPeriodic resyncs every interval until ctx ends, as a backstop for
// events lost while the worker was down.
func (w *RosterWorker) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.SyncRoster(ctx); err != nil {
				w.log.ErrorContext(ctx, "Periodic roster sync failed", "error", err)
			}
		}
	}
}
