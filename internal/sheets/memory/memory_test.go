package memory

import (
	"context"
	"errors"
	"testing"

	"gestaosocial/internal/core"
)

func TestWriteRosterReplacesRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.WriteRoster(ctx, []core.Family{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := len(s.Rows()); got != 3 {
		t.Fatalf("expected 3 rows, got %d", got)
	}

	if err := s.WriteRoster(ctx, []core.Family{{ID: "c"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows := s.Rows()
	if len(rows) != 2 || rows[1][0] != "c" {
		t.Fatalf("unexpected rows: %v", rows)
	}
	if s.Writes() != 2 {
		t.Fatalf("expected 2 writes, got %d", s.Writes())
	}
}

func TestWriteRosterFailure(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailWith(boom)
	if err := s.WriteRoster(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	s.FailWith(nil)
	if err := s.WriteRoster(context.Background(), nil); err != nil {
		t.Fatalf("write after clear: %v", err)
	}
	if s.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", s.Writes())
	}
}
