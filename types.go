package main

type Volunteer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// HoursEntry is one logged block of volunteer time. Listings carry the
// volunteer's Name; the backend only needs UserID on create.
type HoursEntry struct {
	ID     int64   `json:"id"`
	UserID int64   `json:"user_id,omitempty"`
	Name   string  `json:"name,omitempty"`
	Date   string  `json:"date"`
	Hours  float64 `json:"hours"`
	Notes  string  `json:"notes,omitempty"`
}

type VolunteerStats struct {
	Name       string       `json:"name"`
	TotalHours float64      `json:"total_hours"`
	History    []HoursEntry `json:"history"`
}

type (
	LogHoursRequest struct {
		UserID int64   `json:"user_id"`
		Date   string  `json:"date"`
		Hours  float64 `json:"hours"`
		Notes  string  `json:"notes"`
	}

	CreateVolunteerRequest struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}

	UpdateEntryRequest struct {
		Date  string  `json:"date"`
		Hours float64 `json:"hours"`
		Notes string  `json:"notes"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
	}
)
