package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"moim/internal/core"
	applog "moim/internal/log"
	"moim/internal/services"
)

// handleEditOpen starts an edit session for /edit/new or an existing
// meeting and renders the form bound to it.
func (s *Server) handleEditOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var session *services.EditSession
	if id == "new" {
		session = services.NewEditSession(s.now)
	} else {
		m, err := s.store.GetMeeting(ctx, id)
		if err != nil {
			s.fail(w, r, err, applog.ComponentEdit, applog.OpRead)
			return
		}
		session = services.EditSessionFor(m)
	}

	sid := uuid.NewString()
	s.sessions.Set(sid, session, gocache.DefaultExpiration)
	s.metrics.SetEditSessions(s.sessions.ItemCount())

	s.logger.DebugContext(ctx, "Edit session opened",
		applog.FieldSessionID, sid,
		applog.FieldMeetingID, id)

	s.writePage(w, r, "edit.html", s.editView(sid, session, false))
}

func (s *Server) editView(sid string, session *services.EditSession, oob bool) editView {
	return editView{
		SID:     sid,
		IsNew:   session.IsNew(),
		Draft:   session.Draft(),
		Summary: session.Summary(),
		OOB:     oob,
	}
}

// editSession looks up the session of the request and renews its expiry.
// An unknown or expired session is answered with 410.
func (s *Server) editSession(w http.ResponseWriter, r *http.Request) (*services.EditSession, string, bool) {
	sid := r.PathValue("sid")
	v, ok := s.sessions.Get(sid)
	if !ok {
		ErrorResponse(http.StatusGone, "편집 시간이 만료되었습니다", "페이지를 새로고침한 뒤 다시 시도해주세요.").Write(w)
		return nil, "", false
	}
	s.sessions.Set(sid, v, gocache.DefaultExpiration)
	return v.(*services.EditSession), sid, true
}

// applyMeta copies whichever of title, date and location were submitted.
func applyMeta(session *services.EditSession, form FormValues) error {
	if form.Has("title") {
		session.SetTitle(form.Get("title"))
	}
	if form.Has("date") {
		if err := session.SetDate(form.Get("date")); err != nil {
			return err
		}
	}
	if form.Has("location") {
		session.SetLocation(form.Get("location"))
	}
	return nil
}

func (s *Server) handleEditMeta(w http.ResponseWriter, r *http.Request) {
	session, _, ok := s.editSession(w, r)
	if !ok {
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := applyMeta(session, NewFormValues(r.PostForm)); err != nil {
		UnprocessableEntityError("입력 확인", "날짜 형식이 올바르지 않습니다.").Write(w)
		return
	}
	NewHTMXResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleEditAddRow(w http.ResponseWriter, r *http.Request) {
	session, sid, ok := s.editSession(w, r)
	if !ok {
		return
	}
	kind, ok := parseListKind(r.PathValue("list"))
	if !ok {
		NotFoundError("목록을 찾을 수 없습니다.").Write(w)
		return
	}

	switch kind {
	case listParticipants:
		session.AddParticipant()
	case listExpenses:
		session.AddExpense()
	case listDonations:
		session.AddDonation()
	}
	s.writeList(w, r, kind, sid, session)
}

// handleEditUpdateRow changes the submitted fields of one row and answers
// with the recalculated summary only, so the focused input is not replaced.
func (s *Server) handleEditUpdateRow(w http.ResponseWriter, r *http.Request) {
	session, sid, ok := s.editSession(w, r)
	if !ok {
		return
	}
	kind, ok := parseListKind(r.PathValue("list"))
	if !ok {
		NotFoundError("목록을 찾을 수 없습니다.").Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	if err := updateRow(session, kind, r.PathValue("rowID"), NewFormValues(r.PostForm)); err != nil {
		s.fail(w, r, err, applog.ComponentEdit, applog.OpUpdate)
		return
	}

	body, ok := s.render(r.Context(), part("edit-summary", s.editView(sid, session, true)))
	if !ok {
		InternalServerError().Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

func updateRow(session *services.EditSession, kind listKind, id string, form FormValues) error {
	var errs []error
	set := func(field string, apply func() error) {
		if form.Has(field) {
			errs = append(errs, apply())
		}
	}

	switch kind {
	case listParticipants:
		set("name", func() error { return session.SetParticipantName(id, form.Get("name")) })
		set("fee", func() error { return session.SetParticipantFee(id, form.Amount("fee")) })
	case listExpenses:
		set("description", func() error { return session.SetExpenseDescription(id, form.Get("description")) })
		set("amount", func() error { return session.SetExpenseAmount(id, form.Amount("amount")) })
		set("category", func() error { return session.SetExpenseCategory(id, form.Get("category")) })
	case listDonations:
		set("donor", func() error { return session.SetDonationDonor(id, form.Get("donor")) })
		set("amount", func() error { return session.SetDonationAmount(id, form.Amount("amount")) })
		set("note", func() error { return session.SetDonationNote(id, form.Get("note")) })
	}
	return errors.Join(errs...)
}

func (s *Server) handleEditRemoveRow(w http.ResponseWriter, r *http.Request) {
	session, sid, ok := s.editSession(w, r)
	if !ok {
		return
	}
	kind, ok := parseListKind(r.PathValue("list"))
	if !ok {
		NotFoundError("목록을 찾을 수 없습니다.").Write(w)
		return
	}

	id := r.PathValue("rowID")
	var err error
	switch kind {
	case listParticipants:
		err = session.RemoveParticipant(id)
	case listExpenses:
		err = session.RemoveExpense(id)
	case listDonations:
		err = session.RemoveDonation(id)
	}
	if errors.Is(err, services.ErrLastRow) {
		UnprocessableEntityError("삭제할 수 없습니다", "참석자와 지출은 최소 한 줄이 필요합니다.").Write(w)
		return
	}
	if err != nil {
		s.fail(w, r, err, applog.ComponentEdit, applog.OpDelete)
		return
	}
	s.writeList(w, r, kind, sid, session)
}

// writeList renders one list section plus the summary as an out-of-band swap.
func (s *Server) writeList(w http.ResponseWriter, r *http.Request, kind listKind, sid string, session *services.EditSession) {
	body, ok := s.render(r.Context(),
		part(string(kind), s.editView(sid, session, false)),
		part("edit-summary", s.editView(sid, session, true)),
	)
	if !ok {
		InternalServerError().Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

// handleEditSave applies the submitted header fields and saves the draft.
// A refused save answers 422 with a toast and does not navigate.
func (s *Server) handleEditSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, sid, ok := s.editSession(w, r)
	if !ok {
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := applyMeta(session, NewFormValues(r.PostForm)); err != nil {
		UnprocessableEntityError("입력 확인", "날짜 형식이 올바르지 않습니다.").Write(w)
		return
	}

	created := session.IsNew()
	saved, err := s.meetings.Save(ctx, session)
	if err != nil {
		s.fail(w, r, err, applog.ComponentEdit, applog.OpUpdate)
		return
	}

	s.sessions.Delete(sid)
	s.metrics.SetEditSessions(s.sessions.ItemCount())
	s.metrics.MeetingSaved(created)
	s.invalidateHome()
	s.events.LogMeetingSaved(ctx, saved.ID, saved.Title, core.Balance(saved), created)

	title := "모임이 수정되었습니다"
	if created {
		title = "모임이 생성되었습니다"
	}
	setFlash(w, successNotification(title, "변경사항이 성공적으로 저장되었습니다."))
	s.navigate(w, r, "/meetings/"+saved.ID)
}

// handleEditCancel discards the session and returns to where editing began.
func (s *Server) handleEditCancel(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	target := "/"
	if v, ok := s.sessions.Get(sid); ok {
		if session := v.(*services.EditSession); !session.IsNew() {
			target = "/meetings/" + session.Draft().ID
		}
		s.sessions.Delete(sid)
		s.metrics.SetEditSessions(s.sessions.ItemCount())
	}
	s.navigate(w, r, target)
}

// navigate redirects htmx requests with HX-Redirect and plain form posts
// with 303 See Other.
func (s *Server) navigate(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(target).Write(w)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
