package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fust/internal/amqp"
	"fust/internal/ports"
)

// OverzichtWorker keeps an external copy of the balance overview in step
// with the ledger. Every movement event triggers a full rewrite; the
// overview is small and recomputing it avoids drift.
type OverzichtWorker struct {
	reader ports.OverzichtReader
	writer ports.OverzichtWriter
}

func NewOverzichtWorker(reader ports.OverzichtReader, writer ports.OverzichtWriter) *OverzichtWorker {
	return &OverzichtWorker{
		reader: reader,
		writer: writer,
	}
}

// HandleMutatieCreated processes a single mutatie.created message from AMQP.
func (w *OverzichtWorker) HandleMutatieCreated(ctx context.Context, msg *amqp.MutatieCreatedMessage) error {
	slog.InfoContext(ctx, "Processing mutatie created message",
		"id", msg.ID,
		"partij_id", msg.PartijID,
		"datum", msg.Datum)

	return w.Export(ctx)
}

// Export reads the current overview and writes it out.
func (w *OverzichtWorker) Export(ctx context.Context) error {
	rows, err := w.reader.Overzicht(ctx)
	if err != nil {
		return fmt.Errorf("read overzicht: %w", err)
	}
	if err := w.writer.WriteOverzicht(ctx, rows); err != nil {
		return fmt.Errorf("write overzicht: %w", err)
	}
	return nil
}
