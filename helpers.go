package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const dateLayout = "2006-01-02"

// layouts the backend has been seen to send dates in
var entryDateLayouts = []string{
	dateLayout,
	time.RFC3339,
	time.RFC1123,
	"Mon, 02 Jan 2006 15:04:05 GMT",
	"2006-01-02T15:04:05",
}

func PrintTable(w io.Writer, headers []string, rows [][]string, footers []string) {
	colWidths := make([]int, len(headers))
	for i, header := range headers {
		colWidths[i] = utf8.RuneCountInString(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); i < len(colWidths) && n > colWidths[i] {
				colWidths[i] = n
			}
		}
	}

	// print header
	for i, header := range headers {
		fmt.Fprintf(w, "%-*s\t", colWidths[i], header)
	}
	fmt.Fprintln(w)

	// print rows
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) {
				fmt.Fprintf(w, "%-*s\t", colWidths[i], cell)
			}
		}
		fmt.Fprintln(w)
	}

	if len(footers) == 0 {
		return
	}

	// print footer
	for i, footer := range footers {
		if i < len(colWidths) {
			// empty footers still pad the column
			fmt.Fprintf(w, "%-*s\t", colWidths[i], footer)
		}
	}
	fmt.Fprintln(w)
}

func ParseEntryDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range entryDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a backend date as "Mar 1, 2024"; unknown formats pass through.
func FormatDate(s string) string {
	t, ok := ParseEntryDate(s)
	if !ok {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// IsoDate normalises a backend date to YYYY-MM-DD for editing.
func IsoDate(s string) string {
	t, ok := ParseEntryDate(s)
	if !ok {
		return s
	}
	return t.Format(dateLayout)
}

func Today(now time.Time) string {
	return now.Format(dateLayout)
}

func FormatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}
