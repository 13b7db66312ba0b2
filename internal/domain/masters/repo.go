package masters

import "context"

// Repository is the persistence boundary for the masters catalog.
type Repository interface {
	ListCharges(ctx context.Context) ([]*ServiceCharge, error)
	GetCharge(ctx context.Context, id int64) (*ServiceCharge, error)
	// SearchCharges matches active charges by name or category substring.
	SearchCharges(ctx context.Context, query string) ([]*ServiceCharge, error)
	InsertCharge(ctx context.Context, in *ChargeInput) (*ServiceCharge, error)
	// UpdateCharge rewrites the charge; ErrChargeNotFound when the row is
	// absent or soft-deleted.
	UpdateCharge(ctx context.Context, id int64, in *ChargeInput) (*ServiceCharge, error)
	// DeleteCharge soft-deletes; the row stays for historical bills.
	DeleteCharge(ctx context.Context, id int64) (*DeletedCharge, error)

	CategoryExists(ctx context.Context, id int64) (bool, error)
	ListCategories(ctx context.Context) ([]*ServiceCategory, error)
}
