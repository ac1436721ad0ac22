package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hogar/internal/amqp"
	"hogar/internal/core"
	"hogar/internal/ledger"
	"hogar/internal/sheets"
	"hogar/internal/storage"
)

// SyncWorker exports movements from SQLite to the backup spreadsheet.
// It consumes AMQP messages for near-real-time export and sweeps the
// sync_status column as a backup for lost messages.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	exporter  sheets.MovementExporter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, exporter sheets.MovementExporter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single movement sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.MovementSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	movement, err := w.storage.GetMovement(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			// Deleted before we got to it. Nothing to export.
			slog.WarnContext(ctx, "Movement gone before sync, skipping", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get movement from storage: %w", err)
	}

	if err := w.exportMovement(ctx, movement.ID, movement); err != nil {
		return fmt.Errorf("export movement to sheet: %w", err)
	}
	return nil
}

// HandleDeleteMessage processes a single movement delete message from AMQP.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.MovementDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if err := w.exporter.Remove(ctx, msg.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to remove movement from sheet",
			"id", msg.ID,
			"error", err,
			"timestamp", msg.Timestamp)
		return fmt.Errorf("remove movement from sheet: %w", err)
	}

	slog.InfoContext(ctx, "Movement removed from sheet",
		"id", msg.ID,
		"timestamp", msg.Timestamp)
	return nil
}

// ProcessPendingMovements exports movements that never made it to the
// sheet. This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingMovements(ctx context.Context) error {
	pending, err := w.storage.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending movements: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending movements", "count", len(pending))

	for _, p := range pending {
		movement, err := w.storage.GetMovement(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get movement", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID, err.Error()); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}

		if err := w.exportMovement(ctx, p.ID, movement); err != nil {
			slog.ErrorContext(ctx, "Failed to export movement", "id", p.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupSyncCheck exports any backlog left over from worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	// Larger batch at startup to drain the backlog faster.
	pending, err := w.storage.ListPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending movements for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending movements found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending movements on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		movement, err := w.storage.GetMovement(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get movement for startup sync",
				"id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID, err.Error()); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			errorCount++
			continue
		}

		if err := w.exportMovement(ctx, p.ID, movement); err != nil {
			slog.ErrorContext(ctx, "Failed to export movement during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)
	return nil
}

func (w *SyncWorker) exportMovement(ctx context.Context, id int64, movement core.Movement) error {
	ref, err := w.exporter.Append(ctx, movement)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id, err.Error()); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
		// The export itself worked, the sweep will retry the marker
	}

	slog.InfoContext(ctx, "Movement exported",
		"id", id,
		"sheets_ref", ref,
		"description", movement.Description,
		"amount_cents", movement.Amount.Cents)
	return nil
}
