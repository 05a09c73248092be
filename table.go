package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
)

type RowState int

const (
	RowView RowState = iota
	RowEdit
	RowSaving
)

func (s RowState) String() string {
	switch s {
	case RowEdit:
		return "edit"
	case RowSaving:
		return "saving"
	default:
		return "view"
	}
}

var (
	ErrRowNotFound = errors.New("no such entry in the table")
	ErrNotEditing  = errors.New("entry is not being edited")
	ErrEditing     = errors.New("entry is already being edited")
)

// EntryDraft holds the raw values typed into a row being edited.
type EntryDraft struct {
	Date  string
	Hours string
	Notes string
}

// Row is one rendered entry. original is captured on render and never
// changes until the table is reloaded; cancel and failed saves restore it.
type Row struct {
	Entry    HoursEntry
	original HoursEntry
	draft    EntryDraft
	state    RowState
}

func (r *Row) State() RowState      { return r.state }
func (r *Row) Draft() EntryDraft    { return r.draft }
func (r *Row) Original() HoursEntry { return r.original }

type EntryService interface {
	ListEntries(ctx context.Context) ([]HoursEntry, error)
	UpdateEntry(ctx context.Context, id int64, req UpdateEntryRequest) (HoursEntry, error)
	DeleteEntry(ctx context.Context, id int64) (MessageResponse, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer func(prompt string) bool

// HoursTable is the inline editable list of every logged entry. Each row
// moves view -> edit -> (saving ->) view; any successful mutation reloads
// the whole table from the backend.
type HoursTable struct {
	api  EntryService
	rows []*Row
}

func NewHoursTable(api EntryService) *HoursTable {
	return &HoursTable{api: api}
}

// SortEntries orders entries newest date first; equal dates put the higher
// id (the later entry) first.
func SortEntries(entries []HoursEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, oki := ParseEntryDate(entries[i].Date)
		dj, okj := ParseEntryDate(entries[j].Date)
		if oki && okj && !di.Equal(dj) {
			return di.After(dj)
		}
		if oki != okj {
			return oki
		}
		if !oki && entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].ID > entries[j].ID
	})
}

// Reload fetches every entry and rebuilds the rows, dropping any edit in
// progress. On error the current rows are kept.
func (t *HoursTable) Reload(ctx context.Context) error {
	entries, err := t.api.ListEntries(ctx)
	if err != nil {
		return err
	}
	t.Load(entries)
	return nil
}

func (t *HoursTable) Load(entries []HoursEntry) {
	sorted := append([]HoursEntry(nil), entries...)
	SortEntries(sorted)

	t.rows = make([]*Row, 0, len(sorted))
	for _, e := range sorted {
		t.rows = append(t.rows, &Row{Entry: e, original: e})
	}
}

func (t *HoursTable) Rows() []*Row {
	return t.rows
}

func (t *HoursTable) Row(id int64) (*Row, error) {
	for _, r := range t.rows {
		if r.Entry.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", ErrRowNotFound, id)
}

func (t *HoursTable) BeginEdit(id int64) (*Row, error) {
	row, err := t.Row(id)
	if err != nil {
		return nil, err
	}
	if row.state != RowView {
		return nil, fmt.Errorf("%w: %d", ErrEditing, id)
	}

	row.draft = EntryDraft{
		Date:  IsoDate(row.original.Date),
		Hours: FormatHours(row.original.Hours),
		Notes: row.original.Notes,
	}
	row.state = RowEdit
	return row, nil
}

func (t *HoursTable) SetDraft(id int64, draft EntryDraft) error {
	row, err := t.editing(id)
	if err != nil {
		return err
	}
	row.draft = draft
	return nil
}

// Cancel puts the original values back without talking to the backend.
func (t *HoursTable) Cancel(id int64) error {
	row, err := t.editing(id)
	if err != nil {
		return err
	}
	row.Entry = row.original
	row.draft = EntryDraft{}
	row.state = RowView
	return nil
}

// Save validates the draft and sends it. A validation error leaves the row
// in edit; a backend error reverts it to its original values.
func (t *HoursTable) Save(ctx context.Context, id int64) error {
	row, err := t.editing(id)
	if err != nil {
		return err
	}

	hours, err := parseHours(row.draft.Hours)
	if row.draft.Date == "" || err != nil {
		return &ValidationError{Message: "Please enter a valid date and a positive number of hours."}
	}

	row.state = RowSaving
	_, err = t.api.UpdateEntry(ctx, id, UpdateEntryRequest{
		Date:  row.draft.Date,
		Hours: hours,
		Notes: row.draft.Notes,
	})
	if err != nil {
		row.Entry = row.original
		row.draft = EntryDraft{}
		row.state = RowView
		return fmt.Errorf("update entry %d: %w", id, err)
	}

	return t.Reload(ctx)
}

// Delete removes the entry once confirm agrees. It reports whether the
// entry was deleted.
func (t *HoursTable) Delete(ctx context.Context, id int64, confirm Confirmer) (bool, error) {
	row, err := t.Row(id)
	if err != nil {
		return false, err
	}

	prompt := fmt.Sprintf("Delete %s hours for %s on %s?", FormatHours(row.original.Hours), row.original.Name, FormatDate(row.original.Date))
	if confirm == nil || !confirm(prompt) {
		return false, nil
	}

	if _, err := t.api.DeleteEntry(ctx, id); err != nil {
		return false, fmt.Errorf("delete entry %d: %w", id, err)
	}

	return true, t.Reload(ctx)
}

func (t *HoursTable) Render(w io.Writer) {
	if len(t.rows) == 0 {
		fmt.Fprintln(w, "No volunteer hours recorded yet.")
		return
	}

	headers := []string{"ID", "Volunteer", "Date", "Hours", "Notes", ""}
	var rows [][]string
	total := 0.0
	for _, r := range t.rows {
		id := strconv.FormatInt(r.Entry.ID, 10)
		if r.state == RowView {
			rows = append(rows, []string{id, r.Entry.Name, FormatDate(r.Entry.Date), FormatHours(r.Entry.Hours), r.Entry.Notes, ""})
		} else {
			rows = append(rows, []string{id, r.Entry.Name, r.draft.Date, r.draft.Hours, r.draft.Notes, "[" + r.state.String() + "]"})
		}
		total += r.Entry.Hours
	}

	footers := []string{"", "", "Total:", FormatHours(total), "", ""}
	PrintTable(w, headers, rows, footers)
}

func (t *HoursTable) editing(id int64) (*Row, error) {
	row, err := t.Row(id)
	if err != nil {
		return nil, err
	}
	if row.state != RowEdit {
		return nil, fmt.Errorf("%w: %d", ErrNotEditing, id)
	}
	return row, nil
}
