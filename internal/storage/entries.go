package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"moim/internal/core"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeeting(s scanner) (core.Meeting, error) {
	var (
		m                core.Meeting
		date             string
		created, updated int64
	)
	if err := s.Scan(&m.ID, &m.Title, &date, &m.Location, &created, &updated); err != nil {
		return core.Meeting{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Meeting{}, fmt.Errorf("meeting %s: %w", m.ID, err)
	}
	m.Date = d
	m.CreatedAt = time.UnixMilli(created)
	m.UpdatedAt = time.UnixMilli(updated)
	return m, nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, m core.Meeting) error {
	for i, p := range m.Participants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO participants (meeting_id, id, position, name, fee) VALUES (?, ?, ?, ?, ?)`,
			m.ID, entryID(p.ID), i, p.Name, p.Fee); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	for i, e := range m.Expenses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (meeting_id, id, position, description, amount, category) VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, entryID(e.ID), i, e.Description, e.Amount, e.Category); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
	}
	for i, d := range m.Donations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO donations (meeting_id, id, position, donor_name, amount, note) VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, entryID(d.ID), i, d.DonorName, d.Amount, d.Note); err != nil {
			return fmt.Errorf("insert donation: %w", err)
		}
	}
	return nil
}

func entryID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func (r *SQLiteRepository) loadChildren(ctx context.Context, m *core.Meeting) error {
	var err error
	if m.Participants, err = loadParticipants(ctx, r.db, m.ID); err != nil {
		return err
	}
	if m.Expenses, err = loadExpenses(ctx, r.db, m.ID); err != nil {
		return err
	}
	if m.Donations, err = loadDonations(ctx, r.db, m.ID); err != nil {
		return err
	}
	if m.Photos, err = loadPhotos(ctx, r.db, m.ID); err != nil {
		return err
	}
	if m.Comments, err = loadComments(ctx, r.db, m.ID); err != nil {
		return err
	}
	return nil
}

// loadRows runs query for one meeting and collects the scanned rows in position order.
func loadRows[T any](ctx context.Context, q queryer, what, query, meetingID string, scan func(scanner) (T, error)) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, meetingID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", what, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}

func loadParticipants(ctx context.Context, q queryer, meetingID string) ([]core.Participant, error) {
	return loadRows(ctx, q, "participants",
		`SELECT id, name, fee FROM participants WHERE meeting_id = ? ORDER BY position`, meetingID,
		func(s scanner) (core.Participant, error) {
			var p core.Participant
			err := s.Scan(&p.ID, &p.Name, &p.Fee)
			return p, err
		})
}

func loadExpenses(ctx context.Context, q queryer, meetingID string) ([]core.Expense, error) {
	return loadRows(ctx, q, "expenses",
		`SELECT id, description, amount, category FROM expenses WHERE meeting_id = ? ORDER BY position`, meetingID,
		func(s scanner) (core.Expense, error) {
			var e core.Expense
			err := s.Scan(&e.ID, &e.Description, &e.Amount, &e.Category)
			return e, err
		})
}

func loadDonations(ctx context.Context, q queryer, meetingID string) ([]core.Donation, error) {
	return loadRows(ctx, q, "donations",
		`SELECT id, donor_name, amount, note FROM donations WHERE meeting_id = ? ORDER BY position`, meetingID,
		func(s scanner) (core.Donation, error) {
			var d core.Donation
			err := s.Scan(&d.ID, &d.DonorName, &d.Amount, &d.Note)
			return d, err
		})
}

func loadPhotos(ctx context.Context, q queryer, meetingID string) ([]core.Photo, error) {
	return loadRows(ctx, q, "photos",
		`SELECT id, url, caption, is_thumbnail FROM photos WHERE meeting_id = ? ORDER BY position`, meetingID,
		func(s scanner) (core.Photo, error) {
			var p core.Photo
			err := s.Scan(&p.ID, &p.URL, &p.Caption, &p.IsThumbnail)
			return p, err
		})
}

func loadComments(ctx context.Context, q queryer, meetingID string) ([]core.Comment, error) {
	return loadRows(ctx, q, "comments",
		`SELECT id, author_name, content, created_at FROM comments WHERE meeting_id = ? ORDER BY position`, meetingID,
		func(s scanner) (core.Comment, error) {
			var (
				c       core.Comment
				created int64
			)
			err := s.Scan(&c.ID, &c.AuthorName, &c.Content, &created)
			c.CreatedAt = time.UnixMilli(created)
			return c, err
		})
}
