package opd

import (
	"context"
	"time"
)

// Repository is the persistence boundary for the visit queue. InTx scopes a
// function to one transaction; every method called inside it joins that
// transaction.
type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	// LockGroup serializes concurrent writers on one (doctor, date) group.
	// Must be called inside InTx; the lock is released on commit/rollback.
	LockGroup(ctx context.Context, doctorID int64, visitDate time.Time) error

	NextSerial(ctx context.Context, doctorID int64, visitDate time.Time) (int, error)
	Insert(ctx context.Context, e *QueueEntry) error
	GetByID(ctx context.Context, id int64) (*QueueEntry, error)
	Delete(ctx context.Context, id int64) error
	// Renumber reassigns the group's serials to 1..N ordered by creation time.
	Renumber(ctx context.Context, doctorID int64, visitDate time.Time) error
	UpdateStatus(ctx context.Context, id int64, status string) (*QueueEntry, error)

	List(ctx context.Context, f QueueFilters, limit, offset int) ([]*QueueEntry, int, error)
	ListByPatient(ctx context.Context, uhid string, limit, offset int) ([]*QueueEntry, int, error)

	Doctors(ctx context.Context) ([]*Doctor, error)
	GetDoctor(ctx context.Context, id int64) (*Doctor, error)
	VisitTypes(ctx context.Context) ([]*VisitType, error)
	GetVisitType(ctx context.Context, id int64) (*VisitType, error)
}
