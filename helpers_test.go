package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf,
		[]string{"Date", "Hours"},
		[][]string{{"Mar 1, 2024", "2"}, {"Feb 1, 2024", "1.5"}},
		[]string{"Total:", "3.5"},
	)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, 2 rows and footer, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "Date       \t") {
		t.Fatalf("expected header padded to widest cell, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "Total:") {
		t.Fatalf("expected footer last, got %q", lines[3])
	}
}

func TestParseEntryDate(t *testing.T) {
	for _, in := range []string{
		"2024-03-01",
		"2024-03-01T00:00:00Z",
		"Fri, 01 Mar 2024 00:00:00 GMT",
		"2024-03-01T00:00:00",
	} {
		got, ok := ParseEntryDate(in)
		if !ok || got.Format(dateLayout) != "2024-03-01" {
			t.Fatalf("ParseEntryDate(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := ParseEntryDate("yesterday"); ok {
		t.Fatalf("expected unparseable date")
	}
}

func TestFormatters(t *testing.T) {
	if got := FormatDate("2024-03-01"); got != "Mar 1, 2024" {
		t.Fatalf("FormatDate: got %q", got)
	}
	if got := FormatDate("someday"); got != "someday" {
		t.Fatalf("FormatDate passthrough: got %q", got)
	}
	if got := IsoDate("Fri, 01 Mar 2024 00:00:00 GMT"); got != "2024-03-01" {
		t.Fatalf("IsoDate: got %q", got)
	}
	if got := FormatHours(2.50); got != "2.5" {
		t.Fatalf("FormatHours: got %q", got)
	}
	if got := Today(fixedNow); got != "2024-03-15" {
		t.Fatalf("Today: got %q", got)
	}
}
