package google

import (
	"fmt"
	"strings"
	"time"

	"moim/internal/core"
)

var columns = []string{
	"ID", "Title", "Date", "Location", "Participants",
	"Total fees", "Total expenses", "Total donations", "Balance", "Updated",
}

func headerRow() []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = c
	}
	return out
}

// meetingRow renders the summary row of a meeting in column order.
func meetingRow(m core.Meeting) []any {
	s := core.Summarize(m)
	updated := ""
	if !m.UpdatedAt.IsZero() {
		updated = m.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return []any{
		m.ID,
		m.Title,
		m.Date.String(),
		m.Location,
		len(m.Participants),
		s.TotalFees,
		s.TotalExpenses,
		s.TotalDonations,
		s.Balance,
		updated,
	}
}

// findRow returns the 1-based sheet row whose first cell equals id, or 0.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// rowRange returns an A1 range covering n cells of one row, e.g. "Meetings!A3:J3".
func rowRange(sheet string, row, n int) string {
	return fmt.Sprintf("%s!A%d:%s%d", sheet, row, columnName(n), row)
}

// columnName converts a 1-based column index to letters (1 → A, 27 → AA).
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
