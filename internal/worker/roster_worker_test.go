package worker

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"gestaosocial/internal/amqp"
	"gestaosocial/internal/remote"
	remotemem "gestaosocial/internal/remote/memory"
	sheetsmem "gestaosocial/internal/sheets/memory"
)

func newTestWorker(t *testing.T) (*RosterWorker, *remotemem.Store, *sheetsmem.Store) {
	t.Helper()
	backend := remotemem.New()
	sheet := sheetsmem.New()
	return NewRosterWorker(backend, sheet, slog.New(slog.DiscardHandler)), backend, sheet
}

func TestHandleChange_FamilyEventRewritesRoster(t *testing.T) {
	w, backend, sheet := newTestWorker(t)
	backend.SeedFamilies(
		remote.FamilyRow{ID: "f2", Name: "Família Souza", Status: "Active"},
		remote.FamilyRow{ID: "f1", Name: "Família Almeida", Status: "Critical"},
	)

	ev := amqp.NewChangeEvent(amqp.TableFamilies, amqp.ChangeInsert, "f2")
	if err := w.HandleChange(context.Background(), ev); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}

	rows := sheet.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "f1" || rows[2][0] != "f2" {
		t.Errorf("rows should follow the table order, got %v / %v", rows[1][0], rows[2][0])
	}
	if w.LastSync().IsZero() {
		t.Error("last sync should be recorded")
	}
}

func TestHandleChange_LedgerEventIsIgnored(t *testing.T) {
	w, _, sheet := newTestWorker(t)

	ev := amqp.NewChangeEvent(amqp.TableFinancialRecords, amqp.ChangeDelete, "t1")
	if err := w.HandleChange(context.Background(), ev); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if sheet.Writes() != 0 {
		t.Errorf("ledger events must not touch the sheet, got %d writes", sheet.Writes())
	}
}

func TestSyncRoster_SkipsUnmappableRows(t *testing.T) {
	w, backend, sheet := newTestWorker(t)
	backend.SeedFamilies(
		remote.FamilyRow{ID: "ok", Name: "Família Lima", Status: "Active"},
		remote.FamilyRow{ID: "bad", Name: "Família X", Status: "Unknown"},
	)

	if err := w.SyncRoster(context.Background()); err != nil {
		t.Fatalf("SyncRoster: %v", err)
	}
	rows := sheet.Rows()
	if len(rows) != 2 || rows[1][0] != "ok" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestSyncRoster_Errors(t *testing.T) {
	t.Run("list failure", func(t *testing.T) {
		w, backend, sheet := newTestWorker(t)
		backend.FailOn(remotemem.OpListFamilies, errors.New("connection reset"))
		if err := w.SyncRoster(context.Background()); err == nil {
			t.Fatal("expected list error")
		}
		if sheet.Writes() != 0 {
			t.Error("sheet should not be written after a list failure")
		}
	})

	t.Run("write failure is returned for requeue", func(t *testing.T) {
		w, _, sheet := newTestWorker(t)
		sheet.FailWith(errors.New("quota exceeded"))
		ev := amqp.NewChangeEvent(amqp.TableFamilies, amqp.ChangeUpdate, "f1")
		if err := w.HandleChange(context.Background(), ev); err == nil {
			t.Fatal("expected write error")
		}
		if !w.LastSync().IsZero() {
			t.Error("failed sync must not update last sync")
		}
	})
}

func TestRunPeriodic_StopsWithContext(t *testing.T) {
	w, _, sheet := newTestWorker(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.RunPeriodic(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for sheet.Writes() == 0 {
		select {
		case <-deadline:
			t.Fatal("periodic sync never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodic did not return after cancel")
	}
}
