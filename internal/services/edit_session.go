package services

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"moim/internal/core"
)

// EditSession is the in-progress buffer of the meeting edit form.
//
// Lists are never mutated in place: every change builds a new slice, so a
// Draft handed out earlier is not affected by later edits. Participants and
// expenses always keep at least one row; donations may be empty.
type EditSession struct {
	mu    sync.Mutex
	draft core.Meeting
}

// NewEditSession returns the draft of a new meeting: today's date, one empty
// participant row, one empty expense row and no donations.
func NewEditSession(now func() time.Time) *EditSession {
	return &EditSession{draft: core.Meeting{
		Date:         core.DateOf(now()),
		Participants: []core.Participant{{ID: newEntryID()}},
		Expenses:     []core.Expense{{ID: newEntryID()}},
	}}
}

// EditSessionFor starts a session from a stored meeting. Empty lists are
// topped up to the one-row floor so the form always has an input row.
func EditSessionFor(m core.Meeting) *EditSession {
	draft := m.Clone()
	if len(draft.Participants) == 0 {
		draft.Participants = []core.Participant{{ID: newEntryID()}}
	}
	if len(draft.Expenses) == 0 {
		draft.Expenses = []core.Expense{{ID: newEntryID()}}
	}
	return &EditSession{draft: draft}
}

func newEntryID() string { return uuid.NewString() }

// Draft returns a copy of the current buffer.
func (s *EditSession) Draft() core.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// IsNew reports whether saving will create a meeting.
func (s *EditSession) IsNew() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.ID == ""
}

// Summary recalculates the totals of the draft.
func (s *EditSession) Summary() core.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Summarize(s.draft)
}

// Validate refuses a save with a missing title, date or location.
func (s *EditSession) Validate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.draft.Validate(); err != nil {
		return &ValidationError{
			Title:   "입력 필요",
			Message: "모임명, 날짜, 장소를 모두 입력해주세요.",
			Err:     err,
		}
	}
	return nil
}

func (s *EditSession) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Title = strings.TrimSpace(title)
}

// SetDate parses a YYYY-MM-DD value. An empty value clears the date;
// an invalid one leaves the draft unchanged.
func (s *EditSession) SetDate(value string) error {
	d, err := core.ParseDate(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Date = d
	return nil
}

func (s *EditSession) SetLocation(location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Location = strings.TrimSpace(location)
}

// Participants

func (s *EditSession) AddParticipant() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newEntryID()
	s.draft.Participants = appendEntry(s.draft.Participants, core.Participant{ID: id})
	return id
}

func (s *EditSession) SetParticipantName(id, name string) error {
	return s.updateParticipant(id, func(p *core.Participant) { p.Name = name })
}

func (s *EditSession) SetParticipantFee(id string, fee int64) error {
	return s.updateParticipant(id, func(p *core.Participant) { p.Fee = fee })
}

func (s *EditSession) RemoveParticipant(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := removeEntry(s.draft.Participants, id, participantID, 1)
	if err != nil {
		return err
	}
	s.draft.Participants = out
	return nil
}

func (s *EditSession) updateParticipant(id string, set func(*core.Participant)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := updateEntry(s.draft.Participants, id, participantID, set)
	if err != nil {
		return err
	}
	s.draft.Participants = out
	return nil
}

// Expenses

func (s *EditSession) AddExpense() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newEntryID()
	s.draft.Expenses = appendEntry(s.draft.Expenses, core.Expense{ID: id})
	return id
}

func (s *EditSession) SetExpenseDescription(id, description string) error {
	return s.updateExpense(id, func(e *core.Expense) { e.Description = description })
}

func (s *EditSession) SetExpenseAmount(id string, amount int64) error {
	return s.updateExpense(id, func(e *core.Expense) { e.Amount = amount })
}

func (s *EditSession) SetExpenseCategory(id, category string) error {
	return s.updateExpense(id, func(e *core.Expense) { e.Category = category })
}

func (s *EditSession) RemoveExpense(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := removeEntry(s.draft.Expenses, id, expenseID, 1)
	if err != nil {
		return err
	}
	s.draft.Expenses = out
	return nil
}

func (s *EditSession) updateExpense(id string, set func(*core.Expense)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := updateEntry(s.draft.Expenses, id, expenseID, set)
	if err != nil {
		return err
	}
	s.draft.Expenses = out
	return nil
}

// Donations

func (s *EditSession) AddDonation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newEntryID()
	s.draft.Donations = appendEntry(s.draft.Donations, core.Donation{ID: id})
	return id
}

func (s *EditSession) SetDonationDonor(id, donor string) error {
	return s.updateDonation(id, func(d *core.Donation) { d.DonorName = donor })
}

func (s *EditSession) SetDonationAmount(id string, amount int64) error {
	return s.updateDonation(id, func(d *core.Donation) { d.Amount = amount })
}

func (s *EditSession) SetDonationNote(id, note string) error {
	return s.updateDonation(id, func(d *core.Donation) { d.Note = note })
}

func (s *EditSession) RemoveDonation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := removeEntry(s.draft.Donations, id, donationID, 0)
	if err != nil {
		return err
	}
	s.draft.Donations = out
	return nil
}

func (s *EditSession) updateDonation(id string, set func(*core.Donation)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := updateEntry(s.draft.Donations, id, donationID, set)
	if err != nil {
		return err
	}
	s.draft.Donations = out
	return nil
}

func participantID(p core.Participant) string { return p.ID }
func expenseID(e core.Expense) string         { return e.ID }
func donationID(d core.Donation) string       { return d.ID }

func appendEntry[T any](list []T, v T) []T {
	return append(slices.Clip(list), v)
}

func updateEntry[T any](list []T, id string, idOf func(T) string, set func(*T)) ([]T, error) {
	i := slices.IndexFunc(list, func(v T) bool { return idOf(v) == id })
	if i < 0 {
		return list, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	out := slices.Clone(list)
	set(&out[i])
	return out, nil
}

// removeEntry drops the entry with id unless the list would shrink below floor.
func removeEntry[T any](list []T, id string, idOf func(T) string, floor int) ([]T, error) {
	i := slices.IndexFunc(list, func(v T) bool { return idOf(v) == id })
	if i < 0 {
		return list, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	if len(list)-1 < floor {
		return list, ErrLastRow
	}
	return slices.Delete(slices.Clone(list), i, i+1), nil
}
