package consultation

import (
	"errors"
	"time"
)

var (
	ErrConsultationNotFound = errors.New("consultation not found")
	ErrPatientNotFound      = errors.New("patient not found")
	ErrDoctorNotFound       = errors.New("doctor not found")
	ErrOPDNotFound          = errors.New("opd entry not found")
	ErrNoFields             = errors.New("at least one of diagnosis, treatment_plan or followup_instructions is required")
)

// Consultation is a doctor's clinical record for a visit. OPDID links it
// back to the queue entry it was written from; the link is optional so
// walk-in notes without a queue entry remain recordable.
type Consultation struct {
	ID                   int64     `json:"id"`
	UHID                 string    `json:"uhid"`
	DoctorID             int64     `json:"doctor_id"`
	OPDID                *int64    `json:"opd_id,omitempty"`
	Diagnosis            *string   `json:"diagnosis,omitempty"`
	TreatmentPlan        *string   `json:"treatment_plan,omitempty"`
	FollowupInstructions *string   `json:"followup_instructions,omitempty"`
	CreatedAt            time.Time `json:"created_at"`

	// Joined read-path fields, empty on writes.
	PatientName   string     `json:"patient_name,omitempty"`
	PatientPhone  string     `json:"patient_phone,omitempty"`
	PatientGender string     `json:"patient_gender,omitempty"`
	DoctorName    string     `json:"doctor_name,omitempty"`
	VisitType     string     `json:"visit_type,omitempty"`
	SerialNo      *int       `json:"serial_no,omitempty"`
	VisitDate     *time.Time `json:"visit_date,omitempty"`
}

// CreateInput is the write shape for recording a consultation.
type CreateInput struct {
	UHID                 string
	DoctorID             int64
	OPDID                *int64
	Diagnosis            *string
	TreatmentPlan        *string
	FollowupInstructions *string
}

// UpdateInput carries the mutable fields. A nil field keeps the stored
// value; at least one must be set.
type UpdateInput struct {
	Diagnosis            *string
	TreatmentPlan        *string
	FollowupInstructions *string
}

// Empty reports whether the update carries no fields at all.
func (u UpdateInput) Empty() bool {
	return u.Diagnosis == nil && u.TreatmentPlan == nil && u.FollowupInstructions == nil
}

// Filters narrows the consultation listing.
type Filters struct {
	UHID     *string
	DoctorID *int64
	Date     *time.Time
}
