package consultation

import "context"

// Repository is the persistence boundary for consultation records.
type Repository interface {
	Insert(ctx context.Context, cn *Consultation) error
	GetByID(ctx context.Context, id int64) (*Consultation, error)
	// Update overwrites only the fields set in the input; nil fields keep
	// the stored value.
	Update(ctx context.Context, id int64, in UpdateInput) error
	Delete(ctx context.Context, id int64) error

	List(ctx context.Context, f Filters, limit, offset int) ([]*Consultation, int, error)
	ListByPatient(ctx context.Context, uhid string, limit, offset int) ([]*Consultation, int, error)

	PatientExists(ctx context.Context, uhid string) (bool, error)
	DoctorExists(ctx context.Context, doctorID int64) (bool, error)
	OPDExists(ctx context.Context, opdID int64) (bool, error)
}
