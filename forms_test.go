package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeHoursLogger struct {
	logFn func(ctx context.Context, req LogHoursRequest) (HoursEntry, error)
	got   []LogHoursRequest
}

func (f *fakeHoursLogger) LogHours(ctx context.Context, req LogHoursRequest) (HoursEntry, error) {
	f.got = append(f.got, req)
	if f.logFn != nil {
		return f.logFn(ctx, req)
	}
	return HoursEntry{ID: 1, UserID: req.UserID, Date: req.Date, Hours: req.Hours}, nil
}

type fakeVolunteerCreator struct {
	err error
	got []CreateVolunteerRequest
}

func (f *fakeVolunteerCreator) CreateVolunteer(ctx context.Context, req CreateVolunteerRequest) (Volunteer, error) {
	f.got = append(f.got, req)
	if f.err != nil {
		return Volunteer{}, f.err
	}
	return Volunteer{ID: 5, Name: req.Name}, nil
}

func TestLogHoursForm_SuccessResetsToToday(t *testing.T) {
	now := fixedNow
	form := NewLogHoursForm(func() time.Time { return now })
	form.VolunteerID = "3"
	form.Date = "2024-03-10"
	form.Hours = "2.5"
	form.Notes = "kitchen"

	// the day rolls over while the form is open
	now = fixedNow.AddDate(0, 0, 1)

	api := &fakeHoursLogger{}
	if _, err := form.Submit(context.Background(), api); err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	want := LogHoursRequest{UserID: 3, Date: "2024-03-10", Hours: 2.5, Notes: "kitchen"}
	if len(api.got) != 1 || api.got[0] != want {
		t.Fatalf("expected request %+v, got %+v", want, api.got)
	}
	if form.VolunteerID != "" || form.Hours != "" || form.Notes != "" {
		t.Fatalf("expected cleared form, got %+v", form)
	}
	if form.Date != "2024-03-16" {
		t.Fatalf("expected date reset to today, got %q", form.Date)
	}
}

func TestLogHoursForm_Validation(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		date    string
		hours   string
		wantMsg string
	}{
		{name: "missing volunteer", id: "", date: "2024-03-01", hours: "2", wantMsg: "Please fill out all required fields."},
		{name: "missing hours", id: "1", date: "2024-03-01", hours: "", wantMsg: "Please fill out all required fields."},
		{name: "bad date", id: "1", date: "03/01/2024", hours: "2", wantMsg: "Please enter the date as YYYY-MM-DD."},
		{name: "non numeric volunteer", id: "abc", date: "2024-03-01", hours: "2", wantMsg: "Please select a volunteer."},
		{name: "zero hours", id: "1", date: "2024-03-01", hours: "0", wantMsg: "Hours must be a positive number."},
		{name: "nan hours", id: "1", date: "2024-03-01", hours: "NaN", wantMsg: "Hours must be a positive number."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := NewLogHoursForm(fixedClock)
			form.VolunteerID, form.Date, form.Hours = tt.id, tt.date, tt.hours

			api := &fakeHoursLogger{}
			_, err := form.Submit(context.Background(), api)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Message != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, verr.Message)
			}
			if len(api.got) != 0 {
				t.Fatalf("expected no request")
			}
			if form.Hours != tt.hours {
				t.Fatalf("expected form left as typed")
			}
		})
	}
}

func TestLogHoursForm_BackendErrorKeepsForm(t *testing.T) {
	form := NewLogHoursForm(fixedClock)
	form.VolunteerID, form.Date, form.Hours = "1", "2024-03-01", "2"

	api := &fakeHoursLogger{logFn: func(ctx context.Context, req LogHoursRequest) (HoursEntry, error) {
		return HoursEntry{}, &APIError{StatusCode: 400, Message: "Invalid user"}
	}}
	if _, err := form.Submit(context.Background(), api); err == nil {
		t.Fatalf("expected error")
	}
	if form.VolunteerID != "1" || form.Hours != "2" {
		t.Fatalf("expected values kept, got %+v", form)
	}
}

func TestCreateVolunteerForm_Submit(t *testing.T) {
	form := &CreateVolunteerForm{Name: "  Ann Lee ", Email: "ann@example.org", Phone: ""}
	api := &fakeVolunteerCreator{}

	req, err := form.Submit(context.Background(), api)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if req.Name != "Ann Lee" {
		t.Fatalf("expected trimmed name, got %q", req.Name)
	}
	if *form != (CreateVolunteerForm{}) {
		t.Fatalf("expected form reset, got %+v", form)
	}
}

func TestCreateVolunteerForm_Validation(t *testing.T) {
	tests := []struct {
		name string
		form CreateVolunteerForm
		want string
	}{
		{name: "missing name", form: CreateVolunteerForm{Email: "a@b.org"}, want: "Please fill out all required fields."},
		{name: "missing email", form: CreateVolunteerForm{Name: "Ann"}, want: "Please fill out all required fields."},
		{name: "bad email", form: CreateVolunteerForm{Name: "Ann", Email: "ann-at-home"}, want: "Please enter a valid email address."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := tt.form
			api := &fakeVolunteerCreator{}

			_, err := form.Submit(context.Background(), api)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Message != tt.want {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
			if len(api.got) != 0 {
				t.Fatalf("expected no request")
			}
		})
	}
}

func TestCreateVolunteerForm_BackendErrorKeepsForm(t *testing.T) {
	form := &CreateVolunteerForm{Name: "Ann", Email: "ann@example.org", Phone: "555"}
	api := &fakeVolunteerCreator{err: &APIError{StatusCode: 409, Message: "Email already registered"}}

	if _, err := form.Submit(context.Background(), api); err == nil {
		t.Fatalf("expected error")
	}
	if form.Name != "Ann" || form.Phone != "555" {
		t.Fatalf("expected values kept, got %+v", form)
	}
}

func TestConfirmation_FillKeepsPhoneWhenEmpty(t *testing.T) {
	c := Confirmation{Name: "Old", Email: "old@example.org", Phone: "555-0100"}

	c.Fill(CreateVolunteerRequest{Name: "Ann", Email: "ann@example.org"})

	if c.Name != "Ann" || c.Email != "ann@example.org" {
		t.Fatalf("expected name and email replaced, got %+v", c)
	}
	if c.Phone != "555-0100" {
		t.Fatalf("expected prior phone untouched, got %q", c.Phone)
	}

	c.Fill(CreateVolunteerRequest{Name: "Bo", Email: "bo@example.org", Phone: "555-0199"})
	if c.Phone != "555-0199" {
		t.Fatalf("expected phone replaced, got %q", c.Phone)
	}
}
