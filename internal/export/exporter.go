// Package export appends expense events to a CSV audit file. It is the
// consumer side of the AMQP event stream.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/storage"
)

var csvHeader = []string{
	"timestamp", "event", "expense_id", "workspace_id",
	"name", "amount_cents", "currency", "date", "type", "status",
}

type Exporter struct {
	mu     sync.Mutex
	repo   *storage.Repository
	path   string
	logger *log.Logger
}

func NewExporter(repo *storage.Repository, path string, logger *log.Logger) *Exporter {
	return &Exporter{
		repo:   repo,
		path:   path,
		logger: logger.WithComponent(log.ComponentExport),
	}
}

// HandleEvent appends one event row to the CSV file. Deleted expenses are
// logged with identifiers only, since the row is already gone.
func (e *Exporter) HandleEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	record := []string{
		msg.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		msg.Kind,
		msg.ID,
		msg.WorkspaceID,
		"", "", "", "", "", "",
	}

	if msg.Kind != amqp.EventExpenseDeleted {
		expense, err := e.repo.GetExpense(ctx, msg.WorkspaceID, msg.ID)
		switch {
		case errors.Is(err, core.ErrNotFound):
			// Deleted between publish and consume; keep the bare row.
			e.logger.WarnContext(ctx, "Expense gone before export",
				log.FieldExpenseID, msg.ID)
		case err != nil:
			return fmt.Errorf("load expense %s: %w", msg.ID, err)
		default:
			record[4] = expense.Name
			record[5] = strconv.FormatInt(expense.AmountCents, 10)
			record[6] = expense.Currency
			record[7] = expense.Date.Format("2006-01-02")
			record[8] = string(expense.Type)
			record[9] = string(expense.Status)
		}
	}

	if err := e.append(record); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "Exported expense event",
		"kind", msg.Kind,
		log.FieldExpenseID, msg.ID,
		log.FieldWorkspaceID, msg.WorkspaceID)
	return nil
}

func (e *Exporter) append(record []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if dir := filepath.Dir(e.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}

	info, statErr := os.Stat(e.path)
	writeHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(e.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.Flush()
	return w.Error()
}
