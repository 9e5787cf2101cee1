package core

import "slices"

// SortOrder selects the direction of SortMeetings.
type SortOrder string

const (
	SortLatest SortOrder = "latest"
	SortOldest SortOrder = "oldest"
)

// ParseSortOrder maps a query value to a SortOrder, defaulting to SortLatest.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == SortOldest {
		return SortOldest
	}
	return SortLatest
}

// Toggle returns the opposite order, used by the sort button on the home page.
func (o SortOrder) Toggle() SortOrder {
	if o == SortOldest {
		return SortLatest
	}
	return SortOldest
}

// Summary is the derived money view of a meeting.
type Summary struct {
	TotalFees      int64
	TotalExpenses  int64
	TotalDonations int64
	Balance        int64
}

// Negative reports whether expenses exceed fees plus donations.
func (s Summary) Negative() bool {
	return s.Balance < 0
}

func TotalFees(m Meeting) int64 {
	var sum int64
	for _, p := range m.Participants {
		sum += p.Fee
	}
	return sum
}

func TotalExpenses(m Meeting) int64 {
	var sum int64
	for _, e := range m.Expenses {
		sum += e.Amount
	}
	return sum
}

func TotalDonations(m Meeting) int64 {
	var sum int64
	for _, d := range m.Donations {
		sum += d.Amount
	}
	return sum
}

// Balance is fees plus donations minus expenses. It may be negative.
func Balance(m Meeting) int64 {
	return TotalFees(m) + TotalDonations(m) - TotalExpenses(m)
}

// Summarize computes all totals of a meeting in one pass over each list.
func Summarize(m Meeting) Summary {
	s := Summary{
		TotalFees:      TotalFees(m),
		TotalExpenses:  TotalExpenses(m),
		TotalDonations: TotalDonations(m),
	}
	s.Balance = s.TotalFees + s.TotalDonations - s.TotalExpenses
	return s
}

// Thumbnail returns the first flagged photo, else the first photo.
// ok is false when there are no photos.
func Thumbnail(photos []Photo) (photo Photo, ok bool) {
	for _, p := range photos {
		if p.IsThumbnail {
			return p, true
		}
	}
	if len(photos) == 0 {
		return Photo{}, false
	}
	return photos[0], true
}

// SortMeetings returns a new slice ordered by date. Meetings on the same
// date keep their input order for both orders.
func SortMeetings(meetings []Meeting, order SortOrder) []Meeting {
	out := slices.Clone(meetings)
	slices.SortStableFunc(out, func(a, b Meeting) int {
		c := a.Date.Compare(b.Date.Time)
		if order == SortOldest {
			return c
		}
		return -c
	})
	return out
}
