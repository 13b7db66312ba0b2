package consultation

import (
	"context"

	"github.com/rs/zerolog/log"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create records a consultation. Patient and doctor must exist; the OPD
// link is verified only when given.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Consultation, error) {
	ok, err := s.repo.PatientExists(ctx, in.UHID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPatientNotFound
	}
	ok, err = s.repo.DoctorExists(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDoctorNotFound
	}
	if in.OPDID != nil {
		ok, err = s.repo.OPDExists(ctx, *in.OPDID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrOPDNotFound
		}
	}

	cn := &Consultation{
		UHID:                 in.UHID,
		DoctorID:             in.DoctorID,
		OPDID:                in.OPDID,
		Diagnosis:            in.Diagnosis,
		TreatmentPlan:        in.TreatmentPlan,
		FollowupInstructions: in.FollowupInstructions,
	}
	if err := s.repo.Insert(ctx, cn); err != nil {
		return nil, err
	}

	log.Info().
		Int64("consultation_id", cn.ID).
		Str("uhid", cn.UHID).
		Int64("doctor_id", cn.DoctorID).
		Msg("consultation recorded")
	return cn, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

// Update overwrites the given fields and returns the full record with its
// read-path joins.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*Consultation, error) {
	if in.Empty() {
		return nil, ErrNoFields
	}
	if err := s.repo.Update(ctx, id, in); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filters, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) PatientHistory(ctx context.Context, uhid string, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.ListByPatient(ctx, uhid, limit, offset)
}
