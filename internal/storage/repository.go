package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"moim/internal/core"
	"moim/internal/ledger"

	_ "modernc.org/sqlite"
)

// Ensure interface conformance
var (
	_ ledger.MeetingReader   = (*SQLiteRepository)(nil)
	_ ledger.MeetingLister   = (*SQLiteRepository)(nil)
	_ ledger.MeetingWriter   = (*SQLiteRepository)(nil)
	_ ledger.CommentAppender = (*SQLiteRepository)(nil)
	_ ledger.PhotoWriter     = (*SQLiteRepository)(nil)
	_ ledger.BannerStore     = (*SQLiteRepository)(nil)
)

const (
	SyncStatusPending = "pending"
	SyncStatusSynced  = "synced"
	SyncStatusError   = "error"
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// PendingSyncMeeting identifies a meeting revision that still has to be exported.
type PendingSyncMeeting struct {
	ID      string
	Version int64
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable. Used by /readyz.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetMeeting implements ledger.MeetingReader
func (r *SQLiteRepository) GetMeeting(ctx context.Context, id string) (core.Meeting, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, date, location, created_at, updated_at FROM meetings WHERE id = ?`, id)
	m, err := scanMeeting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Meeting{}, fmt.Errorf("%w: %s", ledger.ErrMeetingNotFound, id)
	}
	if err != nil {
		return core.Meeting{}, fmt.Errorf("get meeting %s: %w", id, err)
	}
	if err := r.loadChildren(ctx, &m); err != nil {
		return core.Meeting{}, err
	}
	return m, nil
}

// ListMeetings implements ledger.MeetingLister
func (r *SQLiteRepository) ListMeetings(ctx context.Context) ([]core.Meeting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, date, location, created_at, updated_at FROM meetings ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	var meetings []core.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate meetings: %w", err)
	}
	rows.Close()

	// Children are loaded after the cursor is closed: the pool has one connection.
	for i := range meetings {
		if err := r.loadChildren(ctx, &meetings[i]); err != nil {
			return nil, err
		}
	}
	return meetings, nil
}

// SaveMeeting implements ledger.MeetingWriter. Every save bumps the meeting
// version and marks it pending for export.
func (r *SQLiteRepository) SaveMeeting(ctx context.Context, m core.Meeting) (core.Meeting, error) {
	if err := m.Validate(); err != nil {
		return core.Meeting{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Meeting{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := r.now().UnixMilli()
	if m.ID == "" {
		m.ID = uuid.NewString()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO meetings (id, title, date, location, created_at, updated_at, version, sync_status)
			 VALUES (?, ?, ?, ?, ?, ?, 1, ?)`,
			m.ID, m.Title, m.Date.String(), m.Location, now, now, SyncStatusPending)
		if err != nil {
			return core.Meeting{}, fmt.Errorf("insert meeting: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx,
			`UPDATE meetings SET title = ?, date = ?, location = ?, updated_at = ?,
			 version = version + 1, sync_status = ? WHERE id = ?`,
			m.Title, m.Date.String(), m.Location, now, SyncStatusPending, m.ID)
		if err != nil {
			return core.Meeting{}, fmt.Errorf("update meeting: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.Meeting{}, fmt.Errorf("%w: %s", ledger.ErrMeetingNotFound, m.ID)
		}
		for _, table := range []string{"participants", "expenses", "donations"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE meeting_id = ?`, m.ID); err != nil {
				return core.Meeting{}, fmt.Errorf("clear %s: %w", table, err)
			}
		}
	}

	if err := insertEntries(ctx, tx, m); err != nil {
		return core.Meeting{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Meeting{}, fmt.Errorf("commit meeting: %w", err)
	}

	slog.InfoContext(ctx, "Meeting saved to SQLite",
		"id", m.ID,
		"participants", len(m.Participants),
		"expenses", len(m.Expenses),
		"donations", len(m.Donations))

	return r.GetMeeting(ctx, m.ID)
}

// AppendComment implements ledger.CommentAppender
func (r *SQLiteRepository) AppendComment(ctx context.Context, meetingID string, c core.Comment) error {
	if err := r.ensureMeeting(ctx, meetingID); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (meeting_id, id, position, author_name, content, created_at)
		 SELECT ?, ?, COALESCE(MAX(position), -1) + 1, ?, ?, ? FROM comments WHERE meeting_id = ?`,
		meetingID, c.ID, c.AuthorName, c.Content, c.CreatedAt.UnixMilli(), meetingID)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// AddPhoto implements ledger.PhotoWriter
func (r *SQLiteRepository) AddPhoto(ctx context.Context, meetingID string, p core.Photo) error {
	if err := r.ensureMeeting(ctx, meetingID); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO photos (meeting_id, id, position, url, caption, is_thumbnail)
		 SELECT ?, ?, COALESCE(MAX(position), -1) + 1, ?, ?, ? FROM photos WHERE meeting_id = ?`,
		meetingID, p.ID, p.URL, p.Caption, p.IsThumbnail, meetingID)
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return nil
}

// SetThumbnail implements ledger.PhotoWriter
func (r *SQLiteRepository) SetThumbnail(ctx context.Context, meetingID, photoID string) error {
	if err := r.ensureMeeting(ctx, meetingID); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM photos WHERE meeting_id = ? AND id = ?`, meetingID, photoID).Scan(&n); err != nil {
		return fmt.Errorf("find photo: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrPhotoNotFound, photoID)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE photos SET is_thumbnail = (id = ?) WHERE meeting_id = ?`, photoID, meetingID); err != nil {
		return fmt.Errorf("set thumbnail: %w", err)
	}
	return tx.Commit()
}

// GetBanner implements ledger.BannerStore. A fresh database has no banner row.
func (r *SQLiteRepository) GetBanner(ctx context.Context) (core.Banner, error) {
	var b core.Banner
	err := r.db.QueryRowContext(ctx,
		`SELECT group_name, background_image FROM banner WHERE id = 1`).Scan(&b.GroupName, &b.BackgroundImage)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Banner{}, nil
	}
	if err != nil {
		return core.Banner{}, fmt.Errorf("get banner: %w", err)
	}
	return b, nil
}

// SaveBanner implements ledger.BannerStore
func (r *SQLiteRepository) SaveBanner(ctx context.Context, b core.Banner) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO banner (id, group_name, background_image) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET group_name = excluded.group_name, background_image = excluded.background_image`,
		b.GroupName, b.BackgroundImage)
	if err != nil {
		return fmt.Errorf("save banner: %w", err)
	}
	return nil
}

// GetMeetingVersion returns the current revision of a meeting.
func (r *SQLiteRepository) GetMeetingVersion(ctx context.Context, id string) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx, `SELECT version FROM meetings WHERE id = ?`, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ledger.ErrMeetingNotFound, id)
	}
	if err != nil {
		return 0, fmt.Errorf("get meeting version: %w", err)
	}
	return v, nil
}

// GetPendingSyncMeetings returns meetings not yet exported, including
// earlier failed attempts, oldest change first.
func (r *SQLiteRepository) GetPendingSyncMeetings(ctx context.Context, limit int) ([]PendingSyncMeeting, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version FROM meetings WHERE sync_status IN (?, ?) ORDER BY updated_at LIMIT ?`,
		SyncStatusPending, SyncStatusError, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync meetings: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncMeeting
	for rows.Next() {
		var p PendingSyncMeeting
		if err := rows.Scan(&p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending meeting: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced records a successful export. A meeting saved again after the
// exported version stays pending.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, version int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE meetings SET sync_status = ?, synced_at = ? WHERE id = ? AND version = ?`,
		SyncStatusSynced, r.now().UnixMilli(), id, version)
	if err != nil {
		return fmt.Errorf("mark meeting %s synced: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE meetings SET sync_status = ? WHERE id = ?`, SyncStatusError, id)
	if err != nil {
		return fmt.Errorf("mark meeting %s sync error: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ensureMeeting(ctx context.Context, id string) error {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meetings WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("find meeting: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrMeetingNotFound, id)
	}
	return nil
}
