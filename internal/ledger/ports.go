package ledger

import (
	"context"
	"errors"

	"moim/internal/core"
)

var (
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrPhotoNotFound   = errors.New("photo not found")
)

// Ports for the storage backends (memory, sqlite) and outbound exporters.
type (
	MeetingReader interface {
		GetMeeting(ctx context.Context, id string) (core.Meeting, error)
	}

	MeetingLister interface {
		// ListMeetings returns meetings in insertion order; callers sort.
		ListMeetings(ctx context.Context) ([]core.Meeting, error)
	}

	// MeetingWriter persists the edit form. An empty ID creates a meeting.
	// Photos and comments of an existing meeting are left untouched.
	MeetingWriter interface {
		SaveMeeting(ctx context.Context, m core.Meeting) (core.Meeting, error)
	}

	CommentAppender interface {
		AppendComment(ctx context.Context, meetingID string, c core.Comment) error
	}

	PhotoWriter interface {
		AddPhoto(ctx context.Context, meetingID string, p core.Photo) error
		// SetThumbnail flags photoID and clears the flag on every other photo.
		SetThumbnail(ctx context.Context, meetingID, photoID string) error
	}

	BannerStore interface {
		GetBanner(ctx context.Context) (core.Banner, error)
		SaveBanner(ctx context.Context, b core.Banner) error
	}

	// SummaryExporter mirrors a meeting's ledger to an external sheet.
	SummaryExporter interface {
		ExportMeeting(ctx context.Context, m core.Meeting) error
	}
)
