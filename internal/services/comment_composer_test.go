package services

import (
	"context"
	"errors"
	"testing"

	"moim/internal/core"
	"moim/internal/ledger"
	"moim/internal/ledger/memory"
)

type mapStore struct {
	values map[string]string
	err    error
}

func newMapStore() *mapStore { return &mapStore{values: map[string]string{}} }

func (m *mapStore) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mapStore) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func seededStore(t *testing.T) (*memory.Store, string) {
	t.Helper()
	store := memory.New([]core.Meeting{{ID: "m1", Title: "3월 정기모임", Date: core.NewDate(2024, 3, 15), Location: "강남역"}})
	return store, "m1"
}

func TestCommentComposer_PrefillsAuthor(t *testing.T) {
	store, _ := seededStore(t)
	prefs := newMapStore()
	prefs.values[AuthorKey] = "김철수"

	c := NewCommentComposer(store, prefs, fixedNow)
	if c.Author != "김철수" {
		t.Errorf("Author = %q, want remembered 김철수", c.Author)
	}

	empty := NewCommentComposer(store, newMapStore(), fixedNow)
	if empty.Author != "" {
		t.Errorf("Author = %q, want empty", empty.Author)
	}
}

func TestCommentComposer_Submit(t *testing.T) {
	ctx := context.Background()
	store, id := seededStore(t)
	prefs := newMapStore()

	c := NewCommentComposer(store, prefs, fixedNow)
	c.Author = "  이영희 "
	c.Content = "즐거웠어요!"

	comment, err := c.Submit(ctx, id)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if comment.AuthorName != "이영희" || comment.Content != "즐거웠어요!" || comment.ID == "" {
		t.Errorf("comment = %+v", comment)
	}
	if !comment.CreatedAt.Equal(fixedNow()) {
		t.Errorf("CreatedAt = %v, want %v", comment.CreatedAt, fixedNow())
	}
	if c.Content != "" || c.Author != "이영희" {
		t.Errorf("after submit Author=%q Content=%q, want author kept and content cleared", c.Author, c.Content)
	}
	if prefs.values[AuthorKey] != "이영희" {
		t.Errorf("remembered author = %q", prefs.values[AuthorKey])
	}

	c.Content = "다음에 또 봐요"
	if _, err := c.Submit(ctx, id); err != nil {
		t.Fatalf("second Submit() error = %v", err)
	}
	m, _ := store.GetMeeting(ctx, id)
	if len(m.Comments) != 2 || m.Comments[0].Content != "즐거웠어요!" || m.Comments[1].Content != "다음에 또 봐요" {
		t.Errorf("comments not in submission order: %+v", m.Comments)
	}
}

func TestCommentComposer_RefusesIncompleteInput(t *testing.T) {
	tests := []struct {
		name    string
		author  string
		content string
		wantErr error
	}{
		{"empty content", "김철수", "", core.ErrEmptyContent},
		{"blank content", "김철수", "   \n", core.ErrEmptyContent},
		{"empty author", "", "좋아요", core.ErrEmptyAuthor},
		{"both empty", " ", " ", core.ErrEmptyAuthor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, id := seededStore(t)
			prefs := newMapStore()

			c := NewCommentComposer(store, prefs, fixedNow)
			c.Author, c.Content = tt.author, tt.content

			_, err := c.Submit(ctx, id)
			if !IsValidation(err) || !errors.Is(err, tt.wantErr) {
				t.Fatalf("Submit() error = %v, want validation error wrapping %v", err, tt.wantErr)
			}
			m, _ := store.GetMeeting(ctx, id)
			if len(m.Comments) != 0 {
				t.Errorf("comment list changed: %+v", m.Comments)
			}
			if _, ok := prefs.values[AuthorKey]; ok {
				t.Error("author remembered for a refused comment")
			}
			if c.Content != tt.content {
				t.Error("refused submit cleared the content")
			}
		})
	}
}

func TestCommentComposer_UnknownMeeting(t *testing.T) {
	store, _ := seededStore(t)
	c := NewCommentComposer(store, newMapStore(), fixedNow)
	c.Author, c.Content = "김철수", "안녕하세요"

	_, err := c.Submit(context.Background(), "missing")
	if !errors.Is(err, ledger.ErrMeetingNotFound) {
		t.Fatalf("Submit() error = %v, want ErrMeetingNotFound", err)
	}
	if c.Content == "" {
		t.Error("content cleared although nothing was stored")
	}
}

func TestCommentComposer_PrefsFailureKeepsComment(t *testing.T) {
	ctx := context.Background()
	store, id := seededStore(t)
	prefs := newMapStore()
	prefs.err = errors.New("cookie jar full")

	c := NewCommentComposer(store, prefs, fixedNow)
	c.Author, c.Content = "김철수", "사진 잘 나왔네요"

	if _, err := c.Submit(ctx, id); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	m, _ := store.GetMeeting(ctx, id)
	if len(m.Comments) != 1 {
		t.Errorf("comments = %d, want 1", len(m.Comments))
	}
}
