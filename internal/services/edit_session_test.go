package services

import (
	"errors"
	"testing"
	"time"

	"moim/internal/core"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 15, 21, 30, 0, 0, time.UTC) }

func TestNewEditSession_Defaults(t *testing.T) {
	s := NewEditSession(fixedNow)
	d := s.Draft()

	if d.Title != "" || d.Location != "" {
		t.Errorf("new draft should be blank, got title=%q location=%q", d.Title, d.Location)
	}
	if got := d.Date.String(); got != "2024-03-15" {
		t.Errorf("Date = %q, want today 2024-03-15", got)
	}
	if len(d.Participants) != 1 || len(d.Expenses) != 1 || len(d.Donations) != 0 {
		t.Errorf("rows = %d/%d/%d, want 1/1/0", len(d.Participants), len(d.Expenses), len(d.Donations))
	}
	if !s.IsNew() {
		t.Error("IsNew() = false for a new session")
	}
}

func TestEditSessionFor_CopiesMeeting(t *testing.T) {
	m := core.Meeting{
		ID:           "m1",
		Title:        "3월 정기모임",
		Participants: []core.Participant{{ID: "p1", Name: "김철수", Fee: 50000}},
	}
	s := EditSessionFor(m)
	if err := s.SetParticipantName("p1", "박민수"); err != nil {
		t.Fatalf("SetParticipantName() error = %v", err)
	}

	if m.Participants[0].Name != "김철수" {
		t.Error("editing the session changed the source meeting")
	}
	if s.IsNew() {
		t.Error("IsNew() = true for an existing meeting")
	}
	if len(s.Draft().Expenses) != 1 {
		t.Error("empty expense list should be topped up to one row")
	}
}

func TestEditSession_AddKeepsOrderAndIDs(t *testing.T) {
	s := NewEditSession(fixedNow)
	first := s.Draft().Participants[0].ID

	second := s.AddParticipant()
	third := s.AddParticipant()

	ps := s.Draft().Participants
	if len(ps) != 3 {
		t.Fatalf("len = %d, want 3", len(ps))
	}
	want := []string{first, second, third}
	for i, p := range ps {
		if p.ID != want[i] {
			t.Errorf("participant %d id = %s, want %s", i, p.ID, want[i])
		}
		if p.Name != "" || p.Fee != 0 {
			t.Errorf("new participant should be empty: %+v", p)
		}
	}
	if second == third || second == first {
		t.Error("ids should be unique")
	}
}

func TestEditSession_UpdateTouchesOnlyTarget(t *testing.T) {
	s := NewEditSession(fixedNow)
	a := s.Draft().Expenses[0].ID
	b := s.AddExpense()

	before := s.Draft()
	if err := s.SetExpenseAmount(b, 120000); err != nil {
		t.Fatal(err)
	}
	if err := s.SetExpenseDescription(b, "식사"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetExpenseCategory(b, "식비"); err != nil {
		t.Fatal(err)
	}

	after := s.Draft()
	if after.Expenses[0] != (core.Expense{ID: a}) {
		t.Errorf("untouched expense changed: %+v", after.Expenses[0])
	}
	want := core.Expense{ID: b, Description: "식사", Amount: 120000, Category: "식비"}
	if after.Expenses[1] != want {
		t.Errorf("expense = %+v, want %+v", after.Expenses[1], want)
	}
	if before.Expenses[1].Amount != 0 {
		t.Error("earlier Draft() copy was mutated")
	}
}

func TestEditSession_UpdateUnknownID(t *testing.T) {
	s := NewEditSession(fixedNow)
	before := s.Draft()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"participant name", func() error { return s.SetParticipantName("nope", "x") }},
		{"participant fee", func() error { return s.SetParticipantFee("nope", 1) }},
		{"expense amount", func() error { return s.SetExpenseAmount("nope", 1) }},
		{"donation donor", func() error { return s.SetDonationDonor("nope", "x") }},
		{"donation note", func() error { return s.SetDonationNote("nope", "x") }},
		{"remove participant", func() error { return s.RemoveParticipant("nope") }},
		{"remove donation", func() error { return s.RemoveDonation("nope") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrEntryNotFound) {
				t.Errorf("error = %v, want ErrEntryNotFound", err)
			}
		})
	}

	after := s.Draft()
	if len(after.Participants) != len(before.Participants) || after.Participants[0] != before.Participants[0] {
		t.Error("failed updates changed the draft")
	}
}

func TestEditSession_RemoveKeepsFloor(t *testing.T) {
	s := NewEditSession(fixedNow)
	onlyParticipant := s.Draft().Participants[0].ID
	onlyExpense := s.Draft().Expenses[0].ID

	if err := s.RemoveParticipant(onlyParticipant); !errors.Is(err, ErrLastRow) {
		t.Errorf("RemoveParticipant(last) error = %v, want ErrLastRow", err)
	}
	if err := s.RemoveExpense(onlyExpense); !errors.Is(err, ErrLastRow) {
		t.Errorf("RemoveExpense(last) error = %v, want ErrLastRow", err)
	}
	d := s.Draft()
	if len(d.Participants) != 1 || len(d.Expenses) != 1 {
		t.Fatalf("floor violated: %d participants, %d expenses", len(d.Participants), len(d.Expenses))
	}

	// Donations have no floor.
	id := s.AddDonation()
	if err := s.RemoveDonation(id); err != nil {
		t.Fatalf("RemoveDonation() error = %v", err)
	}
	if n := len(s.Draft().Donations); n != 0 {
		t.Errorf("donations = %d, want 0", n)
	}
}

func TestEditSession_RemovePreservesOrder(t *testing.T) {
	s := NewEditSession(fixedNow)
	a := s.Draft().Participants[0].ID
	b := s.AddParticipant()
	c := s.AddParticipant()

	if err := s.RemoveParticipant(b); err != nil {
		t.Fatalf("RemoveParticipant() error = %v", err)
	}
	ps := s.Draft().Participants
	if len(ps) != 2 || ps[0].ID != a || ps[1].ID != c {
		t.Errorf("order after removal = %+v", ps)
	}
}

func TestEditSession_Validate(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		date     string
		location string
		wantErr  bool
	}{
		{"complete", "3월 정기모임", "2024-03-15", "강남역", false},
		{"empty title", "", "2024-03-15", "강남역", true},
		{"blank title", "   ", "2024-03-15", "강남역", true},
		{"empty date", "3월 정기모임", "", "강남역", true},
		{"empty location", "3월 정기모임", "2024-03-15", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewEditSession(fixedNow)
			s.SetTitle(tt.title)
			if err := s.SetDate(tt.date); err != nil {
				t.Fatalf("SetDate() error = %v", err)
			}
			s.SetLocation(tt.location)

			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidation(err) {
				t.Errorf("Validate() error %T is not a *ValidationError", err)
			}
		})
	}
}

func TestEditSession_SetDateInvalidKeepsValue(t *testing.T) {
	s := NewEditSession(fixedNow)
	if err := s.SetDate("15/03/2024"); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("SetDate() error = %v, want ErrInvalidDate", err)
	}
	if got := s.Draft().Date.String(); got != "2024-03-15" {
		t.Errorf("Date = %q, want unchanged 2024-03-15", got)
	}
}

func TestEditSession_Summary(t *testing.T) {
	s := NewEditSession(fixedNow)
	p := s.Draft().Participants[0].ID
	e := s.Draft().Expenses[0].ID
	s.SetParticipantFee(p, 60000)
	s.SetParticipantFee(s.AddParticipant(), 60000)
	s.SetExpenseAmount(e, 150000)
	s.SetDonationAmount(s.AddDonation(), 10000)

	got := s.Summary()
	want := core.Summary{TotalFees: 120000, TotalExpenses: 150000, TotalDonations: 10000, Balance: -20000}
	if got != want {
		t.Errorf("Summary() = %+v, want %+v", got, want)
	}
	if !got.Negative() {
		t.Error("Negative() = false for a deficit")
	}
}
