package main

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

const msgRequiredFields = "Please fill out all required fields."

// ValidationError is a problem caught before any request is sent.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// validationError turns validator output into the first user facing message.
func validationError(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return &ValidationError{Message: msgRequiredFields}
		}
	}

	switch fe := verrs[0]; fe.Tag() {
	case "email":
		return &ValidationError{Message: "Please enter a valid email address."}
	case "datetime":
		return &ValidationError{Message: "Please enter the date as YYYY-MM-DD."}
	case "number":
		return &ValidationError{Message: "Please select a volunteer."}
	default:
		return &ValidationError{Message: fe.Field() + " is invalid."}
	}
}

func parseHours(s string) (float64, error) {
	hours, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return 0, errors.New("hours must be a positive number")
	}
	return hours, nil
}

// +---------------------+
// |                     |
// |      Log Hours      |
// |                     |
// +---------------------+

type HoursLogger interface {
	LogHours(ctx context.Context, req LogHoursRequest) (HoursEntry, error)
}

type LogHoursForm struct {
	VolunteerID string `validate:"required,number"`
	Date        string `validate:"required,datetime=2006-01-02"`
	Hours       string `validate:"required"`
	Notes       string

	clock func() time.Time
}

func NewLogHoursForm(clock func() time.Time) *LogHoursForm {
	f := &LogHoursForm{clock: clock}
	f.Reset()
	return f
}

// Reset clears every field and sets the date back to today.
func (f *LogHoursForm) Reset() {
	f.VolunteerID = ""
	f.Hours = ""
	f.Notes = ""
	f.Date = Today(f.clock())
}

// Submit sends the form. On success the form is reset; on any error it is
// left as typed.
func (f *LogHoursForm) Submit(ctx context.Context, api HoursLogger) (HoursEntry, error) {
	if err := validate.Struct(f); err != nil {
		return HoursEntry{}, validationError(err)
	}

	hours, err := parseHours(f.Hours)
	if err != nil {
		return HoursEntry{}, &ValidationError{Message: "Hours must be a positive number."}
	}
	userID, err := strconv.ParseInt(f.VolunteerID, 10, 64)
	if err != nil {
		return HoursEntry{}, &ValidationError{Message: "Please select a volunteer."}
	}

	entry, err := api.LogHours(ctx, LogHoursRequest{
		UserID: userID,
		Date:   f.Date,
		Hours:  hours,
		Notes:  f.Notes,
	})
	if err != nil {
		return HoursEntry{}, err
	}

	f.Reset()
	return entry, nil
}

// +---------------------+
// |                     |
// |  Create Volunteer   |
// |                     |
// +---------------------+

type VolunteerCreator interface {
	CreateVolunteer(ctx context.Context, req CreateVolunteerRequest) (Volunteer, error)
}

type CreateVolunteerForm struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
	Phone string
}

func (f *CreateVolunteerForm) Reset() {
	*f = CreateVolunteerForm{}
}

// Submit registers the volunteer and returns what was sent, so callers can
// show it back. The form keeps its values on error.
func (f *CreateVolunteerForm) Submit(ctx context.Context, api VolunteerCreator) (CreateVolunteerRequest, error) {
	req := CreateVolunteerRequest{
		Name:  strings.TrimSpace(f.Name),
		Email: strings.TrimSpace(f.Email),
		Phone: strings.TrimSpace(f.Phone),
	}

	check := CreateVolunteerForm{Name: req.Name, Email: req.Email, Phone: req.Phone}
	if err := validate.Struct(check); err != nil {
		return CreateVolunteerRequest{}, validationError(err)
	}

	if _, err := api.CreateVolunteer(ctx, req); err != nil {
		return CreateVolunteerRequest{}, err
	}

	f.Reset()
	return req, nil
}

// Confirmation is what the registration-confirmation tab displays. Fill
// only overwrites the phone when one was given.
type Confirmation struct {
	Name  string
	Email string
	Phone string
}

func (c *Confirmation) Fill(req CreateVolunteerRequest) {
	c.Name = req.Name
	c.Email = req.Email
	if req.Phone != "" {
		c.Phone = req.Phone
	}
}
