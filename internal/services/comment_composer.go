package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"moim/internal/core"
	"moim/internal/ledger"
)

// AuthorKey is the preference key holding the last comment author on a device.
const AuthorKey = "commentAuthor"

// KeyValueStore is durable per-device storage for small preferences.
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// CommentComposer holds the comment form of a meeting page.
type CommentComposer struct {
	Author  string
	Content string

	appender ledger.CommentAppender
	prefs    KeyValueStore
	now      func() time.Time
}

// NewCommentComposer pre-fills Author with the remembered name, if any.
func NewCommentComposer(appender ledger.CommentAppender, prefs KeyValueStore, now func() time.Time) *CommentComposer {
	c := &CommentComposer{appender: appender, prefs: prefs, now: now}
	if prefs != nil {
		if author, ok := prefs.Get(AuthorKey); ok {
			c.Author = author
		}
	}
	return c
}

// Submit appends the composed comment to the meeting. An empty author or
// content is refused with a *ValidationError and nothing is stored. On
// success the author is remembered and Content is cleared.
func (c *CommentComposer) Submit(ctx context.Context, meetingID string) (core.Comment, error) {
	author := strings.TrimSpace(c.Author)
	content := strings.TrimSpace(c.Content)

	var missing []error
	if author == "" {
		missing = append(missing, core.ErrEmptyAuthor)
	}
	if content == "" {
		missing = append(missing, core.ErrEmptyContent)
	}
	if len(missing) > 0 {
		return core.Comment{}, &ValidationError{
			Title:   "입력 필요",
			Message: "이름과 댓글을 모두 입력해주세요.",
			Err:     errors.Join(missing...),
		}
	}

	comment := core.Comment{
		ID:         uuid.NewString(),
		AuthorName: author,
		Content:    content,
		CreatedAt:  c.now(),
	}
	if err := c.appender.AppendComment(ctx, meetingID, comment); err != nil {
		return core.Comment{}, fmt.Errorf("append comment: %w", err)
	}

	if c.prefs != nil {
		if err := c.prefs.Set(AuthorKey, author); err != nil {
			// The comment is stored; only the pre-fill is lost.
			slog.WarnContext(ctx, "Failed to remember comment author", "error", err)
		}
	}

	c.Author = author
	c.Content = ""
	return comment, nil
}
