package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"moim/internal/core"
)

// fakeSheets serves the two Values endpoints the exporter uses.
type fakeSheets struct {
	mu      sync.Mutex
	columnA [][]any
	updates map[string][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rng := path.Base(r.URL.Path)

	switch r.Method {
	case http.MethodGet:
		json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": f.columnA})
	case http.MethodPut:
		var vr struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil || len(vr.Values) != 1 {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		f.updates[rng] = vr.Values[0]
		json.NewEncoder(w).Encode(map[string]any{"updatedRange": rng})
	default:
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
	}
}

func newFakeClient(t *testing.T, columnA [][]any) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{columnA: columnA, updates: map[string][]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return NewWithService(svc, "sheet-id", ""), fake
}

func exportable() core.Meeting {
	return core.Meeting{
		ID:           "m2",
		Title:        "2월 모임",
		Date:         core.NewDate(2024, 2, 20),
		Location:     "홍대",
		Participants: []core.Participant{{Fee: 60000}, {Fee: 60000}, {Fee: 60000}},
		Expenses:     []core.Expense{{Amount: 150000}, {Amount: 30000}},
	}
}

func TestExportMeeting_UpdatesExistingRow(t *testing.T) {
	client, fake := newFakeClient(t, [][]any{{"ID"}, {"m1"}, {"m2"}})

	if err := client.ExportMeeting(context.Background(), exportable()); err != nil {
		t.Fatalf("ExportMeeting() error = %v", err)
	}

	row, ok := fake.updates["Meetings!A3:J3"]
	if !ok {
		t.Fatalf("row 3 not updated, updates = %v", fake.updates)
	}
	if row[0] != "m2" || row[8] != float64(0) {
		t.Errorf("row = %v", row)
	}
}

func TestExportMeeting_AppendsNewRow(t *testing.T) {
	client, fake := newFakeClient(t, [][]any{{"ID"}, {"m1"}})

	if err := client.ExportMeeting(context.Background(), exportable()); err != nil {
		t.Fatalf("ExportMeeting() error = %v", err)
	}
	if _, ok := fake.updates["Meetings!A3:J3"]; !ok {
		t.Errorf("new meeting not written below the last row, updates = %v", fake.updates)
	}
}

func TestExportMeeting_EmptySheetGetsHeader(t *testing.T) {
	client, fake := newFakeClient(t, nil)

	if err := client.ExportMeeting(context.Background(), exportable()); err != nil {
		t.Fatalf("ExportMeeting() error = %v", err)
	}
	header, ok := fake.updates["Meetings!A1:J1"]
	if !ok || header[0] != "ID" {
		t.Fatalf("header not written, updates = %v", fake.updates)
	}
	if row, ok := fake.updates["Meetings!A2:J2"]; !ok || row[0] != "m2" {
		t.Errorf("meeting not written to row 2, updates = %v", fake.updates)
	}
}

func TestExportMeeting_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "x", sheetName: DefaultSheetName}
	err := c.ExportMeeting(context.Background(), exportable())
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("ExportMeeting() error = %v", err)
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("New() error = %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "id"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("New() error = %v", err)
	}
}
