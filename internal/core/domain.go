package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar-day layout used in forms, URLs and storage.
const DateLayout = "2006-01-02"

// DefaultGroupName is shown on the home banner until the group renames itself.
const DefaultGroupName = "우리 모임"

type (
	// Date is a calendar day without a time component, always at UTC midnight.
	Date struct {
		time.Time
	}

	Participant struct {
		ID   string
		Name string
		Fee  int64
	}

	Expense struct {
		ID          string
		Description string
		Amount      int64
		Category    string // optional
	}

	Donation struct {
		ID        string
		DonorName string
		Amount    int64
		Note      string // optional
	}

	Photo struct {
		ID          string
		URL         string // http(s) URL or inline data: reference
		Caption     string
		IsThumbnail bool
	}

	Comment struct {
		ID         string
		AuthorName string
		Content    string
		CreatedAt  time.Time
	}

	// Meeting owns all of its sub-entities; none are shared between meetings.
	Meeting struct {
		ID           string
		Title        string
		Date         Date
		Location     string
		Participants []Participant
		Expenses     []Expense
		Donations    []Donation
		Photos       []Photo
		Comments     []Comment
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// Banner is the editable header of the home page.
	Banner struct {
		GroupName       string
		BackgroundImage string
	}
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrEmptyDate     = errors.New("empty date")
	ErrEmptyLocation = errors.New("empty location")
	ErrEmptyAuthor   = errors.New("empty author name")
	ErrEmptyContent  = errors.New("empty comment content")
	ErrInvalidDate   = errors.New("invalid date")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// Validate checks the fields the edit form requires before saving.
// It reports every missing field at once.
func (m Meeting) Validate() error {
	var errs []error
	if strings.TrimSpace(m.Title) == "" {
		errs = append(errs, ErrEmptyTitle)
	}
	if m.Date.IsEmpty() {
		errs = append(errs, ErrEmptyDate)
	}
	if strings.TrimSpace(m.Location) == "" {
		errs = append(errs, ErrEmptyLocation)
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy so callers can mutate lists without aliasing.
func (m Meeting) Clone() Meeting {
	c := m
	c.Participants = append([]Participant(nil), m.Participants...)
	c.Expenses = append([]Expense(nil), m.Expenses...)
	c.Donations = append([]Donation(nil), m.Donations...)
	c.Photos = append([]Photo(nil), m.Photos...)
	c.Comments = append([]Comment(nil), m.Comments...)
	return c
}

// ShareText is the text passed to the native share sheet.
func (m Meeting) ShareText() string {
	return m.Title + " - " + m.Date.String()
}

// GroupNameOrDefault returns the banner's group name, falling back to DefaultGroupName.
func (b Banner) GroupNameOrDefault() string {
	if strings.TrimSpace(b.GroupName) == "" {
		return DefaultGroupName
	}
	return b.GroupName
}
