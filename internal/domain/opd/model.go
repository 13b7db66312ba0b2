package opd

import (
	"errors"
	"time"
)

// Queue entry statuses as stored. The API accepts the lowercase hyphenated
// forms and maps them via ParseStatus.
const (
	StatusWaiting    = "WAITING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
)

var apiStatuses = map[string]string{
	"waiting":     StatusWaiting,
	"in-progress": StatusInProgress,
	"completed":   StatusCompleted,
	"cancelled":   StatusCancelled,
}

// ParseStatus maps an API-form status (waiting, in-progress, completed,
// cancelled) to its stored form. Returns ErrInvalidStatus for anything else.
func ParseStatus(s string) (string, error) {
	if stored, ok := apiStatuses[s]; ok {
		return stored, nil
	}
	return "", ErrInvalidStatus
}

var (
	ErrEntryNotFound     = errors.New("opd entry not found")
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrVisitTypeNotFound = errors.New("visit type not found")
	ErrInvalidStatus     = errors.New("invalid status, must be one of: waiting, in-progress, completed, cancelled")
)

// QueueEntry is one scheduled OPD visit. VisitType and VisitAmount are
// copied from the visit-type catalog at creation time so later catalog
// edits do not rewrite history.
type QueueEntry struct {
	ID          int64     `json:"id"`
	UHID        string    `json:"uhid"`
	DoctorID    int64     `json:"doctor_id"`
	VisitType   string    `json:"visit_type"`
	VisitTypeID int64     `json:"visit_type_id"`
	VisitAmount float64   `json:"visit_amount"`
	SerialNo    int       `json:"serial_no"`
	VisitDate   time.Time `json:"visit_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	// Joined read-path fields, empty on writes.
	PatientName   string `json:"patient_name,omitempty"`
	PatientPhone  string `json:"patient_phone,omitempty"`
	PatientGender string `json:"patient_gender,omitempty"`
	DoctorName    string `json:"doctor_name,omitempty"`
}

// DeletedEntry identifies a removed queue entry so the caller can confirm
// which (doctor, date) group was renumbered.
type DeletedEntry struct {
	ID        int64     `json:"id"`
	UHID      string    `json:"uhid"`
	DoctorID  int64     `json:"doctor_id"`
	SerialNo  int       `json:"serial_no"`
	VisitDate time.Time `json:"visit_date"`
}

// Doctor is the lookup shape used by the front desk when enqueueing.
type Doctor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// VisitType is a catalog entry whose name and default amount are
// snapshotted onto queue entries.
type VisitType struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	DefaultAmount float64 `json:"default_amount"`
}

// QueueFilters narrows the queue listing.
type QueueFilters struct {
	VisitDate *time.Time
	DoctorID  *int64
	Status    *string
}

// EnqueueInput is the write shape for adding a patient to a doctor's queue.
type EnqueueInput struct {
	UHID        string
	DoctorID    int64
	VisitTypeID int64
	VisitDate   time.Time
}
