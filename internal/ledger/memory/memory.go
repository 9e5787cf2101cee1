package memory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"moim/internal/core"
	"moim/internal/ledger"
)

// Ensure interface conformance
var (
	_ ledger.MeetingReader   = (*Store)(nil)
	_ ledger.MeetingLister   = (*Store)(nil)
	_ ledger.MeetingWriter   = (*Store)(nil)
	_ ledger.CommentAppender = (*Store)(nil)
	_ ledger.PhotoWriter     = (*Store)(nil)
	_ ledger.BannerStore     = (*Store)(nil)
)

// Store keeps meetings for the lifetime of the process.
type Store struct {
	mu       sync.Mutex
	meetings []core.Meeting
	banner   core.Banner
	now      func() time.Time
}

func New(meetings []core.Meeting) *Store {
	s := &Store{now: time.Now}
	for _, m := range meetings {
		s.meetings = append(s.meetings, m.Clone())
	}
	return s
}

// NewFromFiles seeds the store from base/seed_meetings.yaml, falling back
// to the built-in demo meetings when the file is missing, invalid or empty.
func NewFromFiles(base string) *Store {
	meetings, err := readSeedFile(base)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("No seed file, using demo meetings", "dir", base)
	case err != nil:
		slog.Warn("Ignoring seed file, using demo meetings",
			"path", filepath.Join(base, seedFile),
			"error", err)
	case len(meetings) == 0:
		slog.Warn("Seed file has no meetings, using demo meetings",
			"path", filepath.Join(base, seedFile))
	}
	if err != nil || len(meetings) == 0 {
		meetings = DemoMeetings()
	}
	return New(meetings)
}

func (s *Store) GetMeeting(_ context.Context, id string) (core.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Meeting{}, fmt.Errorf("%w: %s", ledger.ErrMeetingNotFound, id)
	}
	return s.meetings[i].Clone(), nil
}

func (s *Store) ListMeetings(_ context.Context) ([]core.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Meeting, len(s.meetings))
	for i, m := range s.meetings {
		out[i] = m.Clone()
	}
	return out, nil
}

func (s *Store) SaveMeeting(_ context.Context, m core.Meeting) (core.Meeting, error) {
	if err := m.Validate(); err != nil {
		return core.Meeting{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if m.ID == "" {
		m.ID = uuid.NewString()
		m.CreatedAt = now
		m.UpdatedAt = now
		m.Photos, m.Comments = nil, nil
		s.meetings = append(s.meetings, m.Clone())
		return m, nil
	}

	i := s.indexOf(m.ID)
	if i < 0 {
		return core.Meeting{}, fmt.Errorf("%w: %s", ledger.ErrMeetingNotFound, m.ID)
	}
	stored := s.meetings[i]
	m.Photos = stored.Photos
	m.Comments = stored.Comments
	m.CreatedAt = stored.CreatedAt
	m.UpdatedAt = now
	s.meetings[i] = m.Clone()
	return m.Clone(), nil
}

func (s *Store) AppendComment(_ context.Context, meetingID string, c core.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(meetingID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ledger.ErrMeetingNotFound, meetingID)
	}
	m := s.meetings[i].Clone()
	m.Comments = append(m.Comments, c)
	s.meetings[i] = m
	return nil
}

func (s *Store) AddPhoto(_ context.Context, meetingID string, p core.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(meetingID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ledger.ErrMeetingNotFound, meetingID)
	}
	m := s.meetings[i].Clone()
	m.Photos = append(m.Photos, p)
	s.meetings[i] = m
	return nil
}

func (s *Store) SetThumbnail(_ context.Context, meetingID, photoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(meetingID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ledger.ErrMeetingNotFound, meetingID)
	}
	m := s.meetings[i].Clone()
	found := false
	for j := range m.Photos {
		m.Photos[j].IsThumbnail = m.Photos[j].ID == photoID
		found = found || m.Photos[j].IsThumbnail
	}
	if !found {
		return fmt.Errorf("%w: %s", ledger.ErrPhotoNotFound, photoID)
	}
	s.meetings[i] = m
	return nil
}

func (s *Store) GetBanner(_ context.Context) (core.Banner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banner, nil
}

func (s *Store) SaveBanner(_ context.Context, b core.Banner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banner = b
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, m := range s.meetings {
		if m.ID == id {
			return i
		}
	}
	return -1
}
