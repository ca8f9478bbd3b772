package client

import (
	"encoding/csv"
	"fmt"
	"strings"
	"text/tabwriter"

	"roster/internal/roster"
)

// Filter returns the students whose id or name contains query as a
// case-insensitive substring. An empty query matches everything.
func Filter(students []roster.Student, query string) []roster.Student {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return students
	}
	var out []roster.Student
	for _, st := range students {
		if strings.Contains(strings.ToLower(st.Name), q) ||
			strings.Contains(strings.ToLower(st.ID), q) {
			out = append(out, st)
		}
	}
	return out
}

// RenderDashboard renders the filtered roster as the main table, with a
// checkbox-style attendance cell.
func RenderDashboard(students []roster.Student, query string) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRESENT")
	for _, st := range Filter(students, query) {
		box := "[ ]"
		if st.Attendance == roster.Present {
			box = "[x]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", st.ID, st.Name, box)
	}
	w.Flush()
	return b.String()
}

// RenderOverview renders the filtered roster with attendance as plain text.
func RenderOverview(students []roster.Student, query string) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tATTENDANCE")
	for _, st := range Filter(students, query) {
		fmt.Fprintf(w, "%s\t%s\t%s\n", st.ID, st.Name, st.Attendance)
	}
	w.Flush()
	return b.String()
}

// RenderCounters renders the aggregate attendance counters.
func RenderCounters(stats roster.Stats) string {
	return fmt.Sprintf("total: %d  present: %d  absent: %d",
		stats.Total, stats.Present, stats.Absent)
}

// ExportCSV renders the unfiltered roster as a comma-separated table with
// every cell quoted and embedded quotes doubled, header ID,Name,Attendance.
func ExportCSV(students []roster.Student) []byte {
	var b strings.Builder
	writeRow := func(cells ...string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteByte('\n')
	}
	writeRow("ID", "Name", "Attendance")
	for _, st := range students {
		writeRow(st.ID, st.Name, string(st.Attendance))
	}
	return []byte(b.String())
}

// ParseCSV reads an exported table back into records, skipping the header.
func ParseCSV(data []byte) ([]roster.Student, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = 3
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv: missing header")
	}
	var students []roster.Student
	for _, row := range rows[1:] {
		students = append(students, roster.Student{
			ID:         row[0],
			Name:       row[1],
			Attendance: roster.Attendance(row[2]),
		})
	}
	return students, nil
}
