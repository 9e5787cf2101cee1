package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"moim/internal/core"
	applog "moim/internal/log"
	"moim/internal/services"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order := core.ParseSortOrder(r.URL.Query().Get("sort"))

	cards, err := s.meetingCards(ctx, order)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMeeting, applog.OpList)
		return
	}

	banner, err := s.store.GetBanner(ctx)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMeeting, applog.OpRead)
		return
	}

	view := homeView{
		Banner:   banner,
		Sort:     order,
		NextSort: order.Toggle(),
		Cards:    cards,
	}

	// The sort toggle swaps only the list.
	if isHTMX(r) && r.Header.Get("HX-Target") == "meeting-list" {
		body, ok := s.render(ctx, part("meeting-list", view))
		if !ok {
			InternalServerError().Write(w)
			return
		}
		NewHTMXResponse().BodyHTML(body).Write(w)
		return
	}
	// The toast waits for a full page so a partial swap does not consume it.
	view.Flash = popFlash(w, r)
	s.writePage(w, r, "home.html", view)
}

// meetingCards returns the sorted home list, cached per order until the
// next write.
func (s *Server) meetingCards(ctx context.Context, order core.SortOrder) ([]meetingCard, error) {
	if cards, ok := s.homeCache.Get(string(order)); ok {
		return cards, nil
	}

	meetings, err := s.store.ListMeetings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	sorted := core.SortMeetings(meetings, order)
	cards := make([]meetingCard, 0, len(sorted))
	for _, m := range sorted {
		cards = append(cards, newMeetingCard(m))
	}
	s.homeCache.Set(string(order), cards)
	return cards, nil
}

// handleBanner updates the group name and, when a file is attached, the
// background image. An empty group name falls back to the default.
func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if resp := ParseMultipartOrFail(w, r, services.MaxPhotoBytes+(1<<20)); resp != nil {
		resp.Write(w)
		return
	}
	form := NewFormValues(r.PostForm)

	banner, err := s.store.GetBanner(ctx)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMeeting, applog.OpRead)
		return
	}
	if form.Has("group_name") {
		banner.GroupName = form.Get("group_name")
	}
	if form.Get("clear_background") == "on" {
		banner.BackgroundImage = ""
	}

	if file, header, err := r.FormFile("background"); err == nil {
		defer file.Close()
		ref, err := services.ReadDataURL(file, header.Header.Get("Content-Type"), services.MaxPhotoBytes)
		if err != nil {
			s.photoRefused(w, r, err)
			return
		}
		banner.BackgroundImage = string(ref)
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		BadRequestError("요청 형식이 올바르지 않습니다.").Write(w)
		return
	}

	if err := s.store.SaveBanner(ctx, banner); err != nil {
		s.fail(w, r, err, applog.ComponentMeeting, applog.OpUpdate)
		return
	}

	body, ok := s.render(ctx, part("banner", banner))
	if !ok {
		InternalServerError().Write(w)
		return
	}
	NewHTMXResponse().
		TriggerSuccessNotification("홈 화면이 업데이트되었습니다", "변경사항이 저장되었습니다.").
		BodyHTML(body).
		Write(w)
}

// photoRefused answers an unusable upload with a 422 toast.
func (s *Server) photoRefused(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNotImage):
		UnprocessableEntityError("업로드 실패", "이미지 파일만 업로드할 수 있습니다.").Write(w)
	case errors.Is(err, services.ErrPhotoTooLarge):
		UnprocessableEntityError("업로드 실패", "5MB 이하의 이미지만 업로드할 수 있습니다.").Write(w)
	case errors.Is(err, services.ErrEmptyFile):
		UnprocessableEntityError("업로드 실패", "빈 파일은 업로드할 수 없습니다.").Write(w)
	default:
		s.fail(w, r, err, applog.ComponentMeeting, applog.OpUpload)
	}
}
