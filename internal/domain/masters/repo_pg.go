package masters

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medidesk/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const chargeSelect = `
	SELECT sc.id, sc.category_id, scat.name, sc.charge_name,
	       sc.default_rate, sc.is_active, sc.description
	FROM service_charges sc
	LEFT JOIN service_categories scat ON sc.category_id = scat.id`

func scanCharge(row pgx.Row) (*ServiceCharge, error) {
	var c ServiceCharge
	err := row.Scan(&c.ID, &c.CategoryID, &c.CategoryName, &c.ChargeName,
		&c.DefaultRate, &c.IsActive, &c.Description)
	return &c, err
}

func collectCharges(rows pgx.Rows) ([]*ServiceCharge, error) {
	defer rows.Close()
	var charges []*ServiceCharge
	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, err
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

func (r *repoPG) ListCharges(ctx context.Context) ([]*ServiceCharge, error) {
	rows, err := r.conn(ctx).Query(ctx, chargeSelect+`
		WHERE sc.deleted_at IS NULL
		ORDER BY scat.name, sc.charge_name`)
	if err != nil {
		return nil, err
	}
	return collectCharges(rows)
}

func (r *repoPG) GetCharge(ctx context.Context, id int64) (*ServiceCharge, error) {
	c, err := scanCharge(r.conn(ctx).QueryRow(ctx, chargeSelect+`
		WHERE sc.id = $1 AND sc.deleted_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrChargeNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *repoPG) SearchCharges(ctx context.Context, query string) ([]*ServiceCharge, error) {
	rows, err := r.conn(ctx).Query(ctx, chargeSelect+`
		WHERE sc.is_active = true
		  AND sc.deleted_at IS NULL
		  AND (sc.charge_name ILIKE $1 OR scat.name ILIKE $1)
		ORDER BY scat.name, sc.charge_name`,
		"%"+query+"%")
	if err != nil {
		return nil, err
	}
	return collectCharges(rows)
}

func (r *repoPG) InsertCharge(ctx context.Context, in *ChargeInput) (*ServiceCharge, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO service_charges (category_id, charge_name, default_rate, is_active, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		in.CategoryID, in.ChargeName, in.DefaultRate, in.IsActive, in.Description).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.GetCharge(ctx, id)
}

func (r *repoPG) UpdateCharge(ctx context.Context, id int64, in *ChargeInput) (*ServiceCharge, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE service_charges
		SET category_id = $2, charge_name = $3, default_rate = $4,
		    is_active = $5, description = $6, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		id, in.CategoryID, in.ChargeName, in.DefaultRate, in.IsActive, in.Description)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrChargeNotFound
	}
	return r.GetCharge(ctx, id)
}

func (r *repoPG) DeleteCharge(ctx context.Context, id int64) (*DeletedCharge, error) {
	var d DeletedCharge
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE service_charges
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, charge_name`, id).Scan(&d.ID, &d.ChargeName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrChargeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var found int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id FROM service_categories WHERE id = $1 AND is_active = true`, id).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *repoPG) ListCategories(ctx context.Context) ([]*ServiceCategory, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, created_at
		FROM service_categories
		WHERE is_active = true
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []*ServiceCategory
	for rows.Next() {
		var c ServiceCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, &c)
	}
	return cats, rows.Err()
}
