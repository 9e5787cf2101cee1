package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"moim/internal/ledger"
	"moim/internal/storage"
)

// SyncStore is the slice of the SQLite repository the processor needs.
type SyncStore interface {
	ledger.MeetingReader
	GetPendingSyncMeetings(ctx context.Context, limit int) ([]storage.PendingSyncMeeting, error)
	MarkSynced(ctx context.Context, id string, version int64) error
	MarkSyncError(ctx context.Context, id string) error
}

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often to scan for meetings not yet exported (default: 1m)
	PollInterval time.Duration

	// BatchSize is the max number of meetings exported per scan (default: 10)
	BatchSize int
}

func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval: time.Minute,
		BatchSize:    10,
	}
}

// SyncProcessor exports meeting ledgers to an external sheet. It serves
// AMQP messages through SyncMeeting and, as a backstop for lost messages,
// periodically scans the store for pending meetings.
type SyncProcessor struct {
	store    SyncStore
	exporter ledger.SummaryExporter
	config   SyncProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewSyncProcessor(store SyncStore, exporter ledger.SummaryExporter, config SyncProcessorConfig) *SyncProcessor {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSyncProcessorConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultSyncProcessorConfig().BatchSize
	}
	return &SyncProcessor{
		store:    store,
		exporter: exporter,
		config:   config,
	}
}

// SyncMeeting exports the current state of a meeting and records the
// outcome against version. A meeting that no longer exists is skipped.
func (p *SyncProcessor) SyncMeeting(ctx context.Context, id string, version int64) error {
	m, err := p.store.GetMeeting(ctx, id)
	if errors.Is(err, ledger.ErrMeetingNotFound) {
		slog.WarnContext(ctx, "Meeting to sync not found, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get meeting %s: %w", id, err)
	}

	if err := p.exporter.ExportMeeting(ctx, m); err != nil {
		if markErr := p.store.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("export meeting %s: %w", id, err)
	}

	if err := p.store.MarkSynced(ctx, id, version); err != nil {
		// The export itself worked; the next scan exports again at worst.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Synced meeting",
		"id", id,
		"version", version,
		"title", m.Title)
	return nil
}

// ProcessPending exports up to limit pending meetings and reports how many
// succeeded. Individual failures are logged and left pending.
func (p *SyncProcessor) ProcessPending(ctx context.Context, limit int) (int, error) {
	pending, err := p.store.GetPendingSyncMeetings(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending meetings: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending meetings", "count", len(pending))

	synced := 0
	for _, item := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		if err := p.SyncMeeting(ctx, item.ID, item.Version); err != nil {
			slog.ErrorContext(ctx, "Failed to sync meeting", "id", item.ID, "error", err)
			continue
		}
		synced++
	}
	return synced, nil
}

// Start begins the polling loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for the current batch to finish.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sync processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}
}

func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Catch up on anything left from before a restart.
	p.processBatch(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

func (p *SyncProcessor) processBatch(ctx context.Context) {
	if _, err := p.ProcessPending(ctx, p.config.BatchSize); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Failed to process pending meetings", "error", err)
	}
}
