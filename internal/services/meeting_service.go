package services

import (
	"context"
	"fmt"
	"log/slog"

	"moim/internal/core"
	"moim/internal/ledger"
)

// SyncPublisher announces a saved meeting revision to the export worker.
type SyncPublisher interface {
	PublishMeetingSync(ctx context.Context, id string, version int64) error
}

// versionReader is implemented by backends that track meeting revisions.
type versionReader interface {
	GetMeetingVersion(ctx context.Context, id string) (int64, error)
}

// MeetingService orchestrates meeting saves across the store and AMQP.
type MeetingService struct {
	store     ledger.MeetingWriter
	publisher SyncPublisher
}

// NewMeetingService wires a store with an optional publisher (nil disables sync).
func NewMeetingService(store ledger.MeetingWriter, publisher SyncPublisher) *MeetingService {
	return &MeetingService{store: store, publisher: publisher}
}

// Save validates the session and persists its draft. A refused save
// returns a *ValidationError and changes nothing.
func (s *MeetingService) Save(ctx context.Context, session *EditSession) (core.Meeting, error) {
	if err := session.Validate(); err != nil {
		return core.Meeting{}, err
	}

	saved, err := s.store.SaveMeeting(ctx, session.Draft())
	if err != nil {
		return core.Meeting{}, fmt.Errorf("save meeting: %w", err)
	}

	slog.DebugContext(ctx, "Meeting stored",
		"id", saved.ID,
		"created", session.IsNew(),
		"balance", core.Balance(saved))

	// Publishing is best effort: the meeting is stored and the worker's
	// pending scan picks it up later.
	if err := s.publishSync(ctx, saved.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", saved.ID, "error", err)
	}

	return saved, nil
}

func (s *MeetingService) publishSync(ctx context.Context, id string) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	var version int64 = 1
	if vr, ok := s.store.(versionReader); ok {
		v, err := vr.GetMeetingVersion(ctx, id)
		if err != nil {
			return fmt.Errorf("get meeting version: %w", err)
		}
		version = v
	}
	return s.publisher.PublishMeetingSync(ctx, id, version)
}
