package remote

import "time"

// Arrival is the payload for an arrival submit.
type Arrival struct {
	BadgeRef   string
	SiteYear   string
	Cohort     string
	BadgeID    string
	CapturedAt time.Time
}

// Departure is the payload for a departure submit. The backend matches it
// against the open arrival row for the same civil day.
type Departure struct {
	BadgeRef   string
	CapturedAt time.Time
}

// AttendanceRow is one reconciled attendance record for the current civil
// day, as reported by the backend.
type AttendanceRow struct {
	ID          string
	BadgeRef    string
	BadgeID     string
	Cohort      string
	FirstName   string
	LastName    string
	ArrivedAt   *time.Time
	DepartedAt  *time.Time
	SessionName string
}

type rosterRecordPayload struct {
	BadgeID   string `json:"badge_id"`
	RefID     string `json:"ref_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Cohort    string `json:"cohort"`
	SiteYear  string `json:"site_year"`
	Contact   string `json:"contact"`
	SiteID    string `json:"site_id"`
}

type rosterResponse struct {
	Records []rosterRecordPayload `json:"records"`
	Error   string                `json:"error"`
}

type attendancePayload struct {
	Action     string `json:"action"`
	BadgeRef   string `json:"badge_ref"`
	BadgeID    string `json:"badge_id,omitempty"`
	Cohort     string `json:"cohort,omitempty"`
	SiteYear   string `json:"site_year,omitempty"`
	CapturedAt string `json:"captured_at"`
}

type attendanceRowPayload struct {
	ID          string  `json:"id"`
	BadgeRef    string  `json:"badge_ref"`
	BadgeID     string  `json:"badge_id"`
	Cohort      string  `json:"cohort"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	ArrivedAt   *string `json:"arrived_at"`
	DepartedAt  *string `json:"departed_at"`
	SessionName string  `json:"session_name"`
}

type todayResponse struct {
	Rows  []attendanceRowPayload `json:"rows"`
	Error string                 `json:"error"`
}

type windowPayload struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	ArrivalStart   string `json:"arrival_start"`
	DepartureStart string `json:"departure_start"`
}

type scheduleResponse struct {
	Windows []windowPayload `json:"windows"`
	Error   string          `json:"error"`
}
