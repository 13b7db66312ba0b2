package opd

import (
	"context"
	"time"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Enqueue adds a patient to a doctor's queue for a date. The serial is
// assigned under the group lock so two concurrent enqueues on the same
// (doctor, date) never share a serial.
func (s *Service) Enqueue(ctx context.Context, in EnqueueInput) (*QueueEntry, error) {
	if _, err := s.repo.GetDoctor(ctx, in.DoctorID); err != nil {
		return nil, err
	}
	vt, err := s.repo.GetVisitType(ctx, in.VisitTypeID)
	if err != nil {
		return nil, err
	}

	entry := &QueueEntry{
		UHID:        in.UHID,
		DoctorID:    in.DoctorID,
		VisitType:   vt.Name,
		VisitTypeID: vt.ID,
		VisitAmount: vt.DefaultAmount,
		VisitDate:   in.VisitDate,
		Status:      StatusWaiting,
	}

	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockGroup(ctx, in.DoctorID, in.VisitDate); err != nil {
			return err
		}
		serial, err := s.repo.NextSerial(ctx, in.DoctorID, in.VisitDate)
		if err != nil {
			return err
		}
		entry.SerialNo = serial
		return s.repo.Insert(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Dequeue hard-deletes a mis-registered entry and renumbers the surviving
// group so serials stay dense. Delete and renumber commit together or not
// at all.
func (s *Service) Dequeue(ctx context.Context, id int64) (*DeletedEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockGroup(ctx, entry.DoctorID, entry.VisitDate); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.repo.Renumber(ctx, entry.DoctorID, entry.VisitDate)
	})
	if err != nil {
		return nil, err
	}

	return &DeletedEntry{
		ID:        entry.ID,
		UHID:      entry.UHID,
		DoctorID:  entry.DoctorID,
		SerialNo:  entry.SerialNo,
		VisitDate: entry.VisitDate,
	}, nil
}

// SetStatus moves an entry to any of the recognized statuses. Transitions
// are deliberately unrestricted; front-desk workflows revisit states.
func (s *Service) SetStatus(ctx context.Context, id int64, apiStatus string) (*QueueEntry, error) {
	stored, err := ParseStatus(apiStatus)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateStatus(ctx, id, stored)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*QueueEntry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Queue(ctx context.Context, f QueueFilters, limit, offset int) ([]*QueueEntry, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) PatientVisits(ctx context.Context, uhid string, limit, offset int) ([]*QueueEntry, int, error) {
	return s.repo.ListByPatient(ctx, uhid, limit, offset)
}

func (s *Service) Doctors(ctx context.Context) ([]*Doctor, error) {
	return s.repo.Doctors(ctx)
}

func (s *Service) VisitTypes(ctx context.Context) ([]*VisitType, error) {
	return s.repo.VisitTypes(ctx)
}

// ParseVisitDate parses the wire form of a visit date (calendar date, no
// time component).
func ParseVisitDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// VisitDateAt returns the calendar date of the instant t as observed in
// loc, normalized to the same form ParseVisitDate produces. A late-evening
// enqueue must land on the hospital's current day even when the server
// clock runs in UTC.
func VisitDateAt(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
