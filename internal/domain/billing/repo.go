package billing

import (
	"context"
)

// Repository is the persistence boundary for the billing ledger. InTx scopes
// a function to one transaction; every method called inside it joins that
// transaction.
type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	// LockBillNumbers serializes concurrent bill-number assignment. Must be
	// called inside InTx; released on commit/rollback.
	LockBillNumbers(ctx context.Context) error
	NextBillNumber(ctx context.Context) (int64, error)

	InsertBill(ctx context.Context, b *Bill) error
	InsertItem(ctx context.Context, item *BillItem) error
	// UpdateBill rewrites the header's mutable fields and totals; the update
	// is guarded against cancelled bills and reports ErrBillNotFound when no
	// live row matched.
	UpdateBill(ctx context.Context, b *Bill) error
	DeleteItems(ctx context.Context, billID int64) error
	// Cancel conditionally sets the cancellation record; ErrBillNotFound
	// when the bill is absent or already cancelled.
	Cancel(ctx context.Context, billID int64, cancelledBy string, reason *string) (*Cancellation, error)

	// GetByID returns the bill with its items, cancelled or not.
	GetByID(ctx context.Context, id int64) (*Bill, error)
	ItemsByBill(ctx context.Context, billID int64) ([]*BillItem, error)
	List(ctx context.Context, f ListFilters, limit, offset int) ([]*Bill, int, error)
	ListByPatient(ctx context.Context, uhid string, limit, offset int) ([]*Bill, int, error)

	// Collaborator existence checks.
	PatientExists(ctx context.Context, uhid string) (bool, error)
	OPDExists(ctx context.Context, opdID int64) (bool, error)
	DoctorExists(ctx context.Context, doctorID int64) (bool, error)
}
