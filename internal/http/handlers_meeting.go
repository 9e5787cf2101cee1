package http

import (
	"fmt"
	"mime/multipart"
	"net/http"

	applog "moim/internal/log"
	"moim/internal/services"
)

func (s *Server) handleMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, err := s.store.GetMeeting(ctx, r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err, applog.ComponentMeeting, applog.OpRead)
		return
	}

	author, _ := cookiePrefs{r: r, w: w}.Get(services.AuthorKey)
	view := newMeetingView(m, author)
	view.Flash = popFlash(w, r)
	s.writePage(w, r, "meeting.html", view)
}

// handleAddComment runs the comment composer. The author name is
// remembered per device in a cookie and pre-fills the next form.
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	form := NewFormValues(r.PostForm)
	meetingID := r.PathValue("id")

	composer := services.NewCommentComposer(s.store, cookiePrefs{r: r, w: w}, s.now)
	composer.Author = form.Get("author")
	composer.Content = form.Get("content")

	if _, err := composer.Submit(ctx, meetingID); err != nil {
		s.fail(w, r, err, applog.ComponentComment, applog.OpCreate)
		return
	}
	s.metrics.CommentPosted()
	s.invalidateHome()

	m, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		s.fail(w, r, err, applog.ComponentComment, applog.OpRead)
		return
	}
	body, ok := s.render(ctx, part("comments", commentsView{
		MeetingID: m.ID,
		Comments:  m.Comments,
		Author:    composer.Author,
	}))
	if !ok {
		InternalServerError().Write(w)
		return
	}
	NewHTMXResponse().
		TriggerSuccessNotification("댓글이 작성되었습니다", "소중한 의견 감사합니다!").
		BodyHTML(body).
		Write(w)
}

// handleUploadPhotos adds every attached image to the gallery. Files are
// read completely before anything is stored; one unusable file refuses
// the whole upload.
func (s *Server) handleUploadPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const maxUpload = 4*services.MaxPhotoBytes + (1 << 20)
	if resp := ParseMultipartOrFail(w, r, maxUpload); resp != nil {
		resp.Write(w)
		return
	}
	meetingID := r.PathValue("id")
	if _, err := s.store.GetMeeting(ctx, meetingID); err != nil {
		s.fail(w, r, err, applog.ComponentMeeting, applog.OpUpload)
		return
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File["photo"]
	}
	if len(files) == 0 {
		UnprocessableEntityError("입력 필요", "추가할 사진을 선택해주세요.").Write(w)
		return
	}

	caption := NewFormValues(r.PostForm).Get("caption")
	refs := make([]services.DataRef, 0, len(files))
	for _, fh := range files {
		ref, err := readUpload(fh)
		if err != nil {
			s.photoRefused(w, r, err)
			return
		}
		refs = append(refs, ref)
	}
	for _, ref := range refs {
		if _, err := s.photos.AddRef(ctx, meetingID, ref, caption); err != nil {
			s.fail(w, r, err, applog.ComponentMeeting, applog.OpUpload)
			return
		}
		s.metrics.PhotoAdded()
	}
	s.invalidateHome()

	s.writeGallery(w, r, meetingID, successNotification("이미지가 추가되었습니다", "사진이 갤러리에 추가되었습니다."))
}

func readUpload(fh *multipart.FileHeader) (services.DataRef, error) {
	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()
	return services.ReadDataURL(file, fh.Header.Get("Content-Type"), services.MaxPhotoBytes)
}

func (s *Server) handleSetThumbnail(w http.ResponseWriter, r *http.Request) {
	meetingID := r.PathValue("id")
	if err := s.photos.SetThumbnail(r.Context(), meetingID, r.PathValue("photoID")); err != nil {
		s.fail(w, r, err, applog.ComponentMeeting, applog.OpUpdate)
		return
	}
	s.invalidateHome()
	s.writeGallery(w, r, meetingID, successNotification("대표 사진이 변경되었습니다", "홈 화면 카드에 이 사진이 표시됩니다."))
}

func (s *Server) writeGallery(w http.ResponseWriter, r *http.Request, meetingID string, n Notification) {
	ctx := r.Context()
	m, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		s.fail(w, r, err, applog.ComponentMeeting, applog.OpRead)
		return
	}
	body, ok := s.render(ctx, part("gallery", newGalleryView(m)))
	if !ok {
		InternalServerError().Write(w)
		return
	}
	NewHTMXResponse().TriggerNotification(n).BodyHTML(body).Write(w)
}

// handleShare hands the share payload to the page, which opens the native
// share sheet or falls back to copying the link.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMeeting(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err, applog.ComponentMeeting, applog.OpRead)
		return
	}
	NewHTMXResponse().
		Status(http.StatusNoContent).
		TriggerShare(SharePayload{
			Title:    m.Title,
			Text:     m.ShareText(),
			URL:      absoluteURL(r, "/meetings/"+m.ID),
			Fallback: successNotification("링크가 복사되었습니다", "클립보드에 페이지 링크가 복사되었습니다."),
		}).
		Write(w)
}
