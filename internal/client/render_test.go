package client

import (
	"reflect"
	"strings"
	"testing"

	"roster/internal/roster"
)

var sample = []roster.Student{
	{ID: "S1", Name: "Ann", Attendance: roster.Present},
	{ID: "S2", Name: "Béatrice", Attendance: roster.Absent},
	{ID: "x-17", Name: "Cal", Attendance: roster.Present},
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{name: "empty matches all", query: "", wantIDs: []string{"S1", "S2", "x-17"}},
		{name: "whitespace only", query: "   ", wantIDs: []string{"S1", "S2", "x-17"}},
		{name: "name substring", query: "atri", wantIDs: []string{"S2"}},
		{name: "case insensitive name", query: "ANN", wantIDs: []string{"S1"}},
		{name: "id substring", query: "x-1", wantIDs: []string{"x-17"}},
		{name: "case insensitive id", query: "s1", wantIDs: []string{"S1"}},
		{name: "no match", query: "zzz", wantIDs: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			for _, st := range Filter(sample, tt.query) {
				ids = append(ids, st.ID)
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("Filter(%q) ids = %v, want %v", tt.query, ids, tt.wantIDs)
			}
		})
	}
}

func TestRenderDashboard(t *testing.T) {
	out := RenderDashboard(sample, "")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("RenderDashboard() produced %d lines, want 4:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "[x]") {
		t.Errorf("present row missing checked box: %q", lines[1])
	}
	if !strings.Contains(lines[2], "[ ]") {
		t.Errorf("absent row missing empty box: %q", lines[2])
	}

	filtered := RenderDashboard(sample, "Ann")
	if strings.Contains(filtered, "S2") {
		t.Errorf("filtered dashboard still shows S2:\n%s", filtered)
	}
}

func TestRenderOverviewReadOnly(t *testing.T) {
	out := RenderOverview(sample, "")
	if !strings.Contains(out, "present") || !strings.Contains(out, "absent") {
		t.Errorf("overview should render attendance as text:\n%s", out)
	}
	if strings.Contains(out, "[x]") || strings.Contains(out, "[ ]") {
		t.Errorf("overview must not render checkboxes:\n%s", out)
	}
}

func TestRenderCounters(t *testing.T) {
	got := RenderCounters(roster.Stats{Total: 3, Present: 2, Absent: 1})
	if got != "total: 3  present: 2  absent: 1" {
		t.Errorf("RenderCounters() = %q", got)
	}
}

func TestExportCSVQuoting(t *testing.T) {
	out := string(ExportCSV([]roster.Student{
		{ID: "S1", Name: `Ann "The Hammer", Jr.`, Attendance: roster.Present},
	}))
	want := "\"ID\",\"Name\",\"Attendance\"\n\"S1\",\"Ann \"\"The Hammer\"\", Jr.\",\"present\"\n"
	if out != want {
		t.Errorf("ExportCSV() = %q, want %q", out, want)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	tricky := []roster.Student{
		{ID: "S1", Name: "Ann", Attendance: roster.Present},
		{ID: "S,2", Name: `quote " comma , done`, Attendance: roster.Absent},
		{ID: "S3", Name: "new\nline", Attendance: roster.Present},
	}

	parsed, err := ParseCSV(ExportCSV(tricky))
	if err != nil {
		t.Fatalf("ParseCSV() failed: %v", err)
	}
	if !reflect.DeepEqual(parsed, tricky) {
		t.Errorf("round trip = %v, want %v", parsed, tricky)
	}
}

func TestParseCSVRejectsGarbage(t *testing.T) {
	if _, err := ParseCSV([]byte("")); err == nil {
		t.Error("ParseCSV(empty) should fail")
	}
	if _, err := ParseCSV([]byte("\"only\",\"two\"\n")); err == nil {
		t.Error("ParseCSV(two columns) should fail")
	}
}
