package main

import (
	"context"
	"fmt"
	"strconv"
)

// VolunteerDropdown is a volunteer picker whose selection is kept in the
// Session. Every dropdown shares the one stored selection, so choosing a
// volunteer on one tab preselects them on the others.
type VolunteerDropdown struct {
	name        string
	placeholder string
	session     *Session

	options  []Volunteer
	selected string
}

func NewVolunteerDropdown(name, placeholder string, session *Session) *VolunteerDropdown {
	return &VolunteerDropdown{name: name, placeholder: placeholder, session: session}
}

// Populate replaces the options and restores the stored selection when
// that volunteer is still listed.
func (d *VolunteerDropdown) Populate(ctx context.Context, users []Volunteer) error {
	d.options = append(d.options[:0], users...)
	d.selected = ""

	stored, err := d.session.SelectedVolunteer(ctx)
	if err != nil {
		return fmt.Errorf("read selected volunteer: %w", err)
	}
	if stored != "" && d.has(stored) {
		d.selected = stored
	}
	return nil
}

func (d *VolunteerDropdown) Select(ctx context.Context, id string) error {
	if id != "" && !d.has(id) {
		return fmt.Errorf("volunteer %s is not in the %s list", id, d.name)
	}
	d.selected = id
	return d.session.SetSelectedVolunteer(ctx, id)
}

func (d *VolunteerDropdown) Selected() string     { return d.selected }
func (d *VolunteerDropdown) Options() []Volunteer { return d.options }
func (d *VolunteerDropdown) Placeholder() string  { return d.placeholder }
func (d *VolunteerDropdown) Empty() bool          { return len(d.options) == 0 }

// Label returns the display name for id, or the placeholder.
func (d *VolunteerDropdown) Label(id string) string {
	for _, v := range d.options {
		if strconv.FormatInt(v.ID, 10) == id {
			return v.Name
		}
	}
	return d.placeholder
}

func (d *VolunteerDropdown) has(id string) bool {
	for _, v := range d.options {
		if strconv.FormatInt(v.ID, 10) == id {
			return true
		}
	}
	return false
}
