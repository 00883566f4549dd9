package export

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/storage"
)

func newTestExporter(t *testing.T) (*Exporter, *storage.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := storage.New(filepath.Join(dir, "tally.db"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	path := filepath.Join(dir, "export.csv")
	return NewExporter(repo, path, logger), repo, path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

func TestHandleEventAppendsExpenseRow(t *testing.T) {
	exporter, repo, path := newTestExporter(t)
	ctx := context.Background()

	_, ws, err := repo.CreateUserWithWorkspace(ctx, "x@example.com", "hash", "Casa", "EUR")
	if err != nil {
		t.Fatalf("CreateUserWithWorkspace: %v", err)
	}
	expense, err := repo.CreateExpense(ctx, core.Expense{
		WorkspaceID:    ws.ID,
		Name:           "groceries",
		Type:           core.VariableSurvival,
		Status:         core.StatusConfirmed,
		AmountCents:    2350,
		Currency:       "EUR",
		AmountRefCents: 2350,
		Date:           time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	msg := amqp.NewExpenseEventMessage(amqp.EventExpenseCreated, expense.ID, ws.ID)
	if err := exporter.HandleEvent(ctx, msg); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(records))
	}
	row := records[1]
	if row[1] != amqp.EventExpenseCreated || row[4] != "groceries" || row[5] != "2350" {
		t.Errorf("row = %v", row)
	}

	// Second event appends without duplicating the header.
	if err := exporter.HandleEvent(ctx, msg); err != nil {
		t.Fatalf("HandleEvent (second): %v", err)
	}
	if records := readCSV(t, path); len(records) != 3 {
		t.Errorf("rows = %d, want 3", len(records))
	}
}

func TestHandleEventForDeletedExpense(t *testing.T) {
	exporter, repo, path := newTestExporter(t)
	ctx := context.Background()

	_, ws, err := repo.CreateUserWithWorkspace(ctx, "x@example.com", "hash", "Casa", "EUR")
	if err != nil {
		t.Fatalf("CreateUserWithWorkspace: %v", err)
	}

	msg := amqp.NewExpenseEventMessage(amqp.EventExpenseDeleted, "gone-id", ws.ID)
	if err := exporter.HandleEvent(ctx, msg); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("rows = %d, want 2", len(records))
	}
	if records[1][1] != amqp.EventExpenseDeleted || records[1][4] != "" {
		t.Errorf("row = %v", records[1])
	}
}
