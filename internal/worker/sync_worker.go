package worker

import (
	"context"
	"fmt"
	"log/slog"

	"moim/internal/amqp"
)

// MeetingSyncer exports one meeting revision.
type MeetingSyncer interface {
	SyncMeeting(ctx context.Context, id string, version int64) error
	ProcessPending(ctx context.Context, limit int) (int, error)
}

// SyncWorker turns AMQP sync messages into meeting exports.
type SyncWorker struct {
	syncer    MeetingSyncer
	batchSize int
}

func NewSyncWorker(syncer MeetingSyncer, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{syncer: syncer, batchSize: batchSize}
}

// HandleSyncMessage processes a single meeting sync message from AMQP.
// A returned error makes the consumer requeue the message.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.MeetingSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	if msg.ID == "" {
		// Nothing to look up; acknowledging drops the message.
		slog.WarnContext(ctx, "Sync message without meeting id, dropping")
		return nil
	}

	if err := w.syncer.SyncMeeting(ctx, msg.ID, msg.Version); err != nil {
		return fmt.Errorf("sync meeting %s: %w", msg.ID, err)
	}
	return nil
}

// StartupSyncCheck exports meetings left pending while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.syncer.ProcessPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}
