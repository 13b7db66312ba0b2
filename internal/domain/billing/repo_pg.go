package billing

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

func (r *repoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.RunInTx(ctx, r.pool, fn)
}

// lockClassBilling namespaces the bill-number advisory lock.
const lockClassBilling = 2

func (r *repoPG) LockBillNumbers(ctx context.Context) error {
	_, err := r.conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock($1, 0)`, lockClassBilling)
	return err
}

func (r *repoPG) NextBillNumber(ctx context.Context) (int64, error) {
	var next int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT COALESCE(MAX(bill_no), 0) + 1 FROM bills`).Scan(&next)
	return next, err
}

func (r *repoPG) InsertBill(ctx context.Context, b *Bill) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bills (
			bill_no, uhid, patient_name, phone, relation_text, opd_id, doctor_id,
			category, bill_type,
			upi_reference, aadhaar_no, ayushman_card_no, ration_card_no,
			echs_referral_no, echs_service_no, echs_claim_id,
			admit_date, discharge_date,
			gross_amount, discount_amount, net_amount, created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		RETURNING id, created_at, updated_at`,
		b.BillNo, b.UHID, b.PatientName, b.Phone, b.RelationText, b.OPDID, b.DoctorID,
		b.Category, b.BillType,
		b.UPIReference, b.AadhaarNo, b.AyushmanCardNo, b.RationCardNo,
		b.ECHSReferralNo, b.ECHSServiceNo, b.ECHSClaimID,
		b.AdmitDate, b.DischargeDate,
		b.GrossAmount, b.DiscountAmount, b.NetAmount, b.CreatedBy).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *repoPG) InsertItem(ctx context.Context, item *BillItem) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO bill_items (bill_id, charge_id, charge_name, category, qty, rate, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		item.BillID, item.ChargeID, item.ChargeName, item.Category,
		item.Qty, item.Rate, item.Amount).
		Scan(&item.ID)
}

func (r *repoPG) UpdateBill(ctx context.Context, b *Bill) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE bills SET
			bill_type = $2,
			upi_reference = $3, aadhaar_no = $4, ayushman_card_no = $5, ration_card_no = $6,
			echs_referral_no = $7, echs_service_no = $8, echs_claim_id = $9,
			admit_date = $10, discharge_date = $11,
			gross_amount = $12, discount_amount = $13, net_amount = $14,
			updated_at = NOW()
		WHERE id = $1 AND cancelled_at IS NULL`,
		b.ID, b.BillType,
		b.UPIReference, b.AadhaarNo, b.AyushmanCardNo, b.RationCardNo,
		b.ECHSReferralNo, b.ECHSServiceNo, b.ECHSClaimID,
		b.AdmitDate, b.DischargeDate,
		b.GrossAmount, b.DiscountAmount, b.NetAmount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBillNotFound
	}
	return nil
}

func (r *repoPG) DeleteItems(ctx context.Context, billID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, billID)
	return err
}

func (r *repoPG) Cancel(ctx context.Context, billID int64, cancelledBy string, reason *string) (*Cancellation, error) {
	var c Cancellation
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE bills
		SET cancelled_at = NOW(), cancelled_by = $2, cancel_reason = $3, updated_at = NOW()
		WHERE id = $1 AND cancelled_at IS NULL
		RETURNING id, bill_no, cancelled_at, cancelled_by, cancel_reason`,
		billID, cancelledBy, reason).
		Scan(&c.ID, &c.BillNo, &c.CancelledAt, &c.CancelledBy, &c.CancelReason)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const billCols = `b.id, b.bill_no, b.uhid, b.patient_name, b.phone, b.relation_text,
	b.opd_id, b.doctor_id, b.category, b.bill_type,
	b.upi_reference, b.aadhaar_no, b.ayushman_card_no, b.ration_card_no,
	b.echs_referral_no, b.echs_service_no, b.echs_claim_id,
	b.admit_date, b.discharge_date,
	b.gross_amount, b.discount_amount, b.net_amount,
	b.created_by, b.created_at, b.updated_at,
	b.cancelled_at, b.cancelled_by, b.cancel_reason`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.BillNo, &b.UHID, &b.PatientName, &b.Phone, &b.RelationText,
		&b.OPDID, &b.DoctorID, &b.Category, &b.BillType,
		&b.UPIReference, &b.AadhaarNo, &b.AyushmanCardNo, &b.RationCardNo,
		&b.ECHSReferralNo, &b.ECHSServiceNo, &b.ECHSClaimID,
		&b.AdmitDate, &b.DischargeDate,
		&b.GrossAmount, &b.DiscountAmount, &b.NetAmount,
		&b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
		&b.CancelledAt, &b.CancelledBy, &b.CancelReason)
	return &b, err
}

// GetByID returns the bill with items attached, including cancelled bills
// so the audit trail stays readable.
func (r *repoPG) GetByID(ctx context.Context, id int64) (*Bill, error) {
	b, err := scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bills b WHERE b.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, err
	}
	items, err := r.ItemsByBill(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return b, nil
}

func (r *repoPG) ItemsByBill(ctx context.Context, billID int64) ([]*BillItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, bill_id, charge_id, charge_name, category, qty, rate, amount
		FROM bill_items
		WHERE bill_id = $1
		ORDER BY id`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*BillItem
	for rows.Next() {
		var item BillItem
		if err := rows.Scan(&item.ID, &item.BillID, &item.ChargeID, &item.ChargeName,
			&item.Category, &item.Qty, &item.Rate, &item.Amount); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

const listWhere = ` WHERE b.cancelled_at IS NULL
	  AND ($1::date IS NULL OR b.created_at::date >= $1)
	  AND ($2::date IS NULL OR b.created_at::date <= $2)
	  AND ($3::varchar IS NULL OR b.bill_type ILIKE $3)
	  AND ($4::varchar IS NULL OR b.uhid ILIKE $4 OR b.patient_name ILIKE $4)`

func likePattern(s string) *string {
	if s == "" {
		return nil
	}
	p := "%" + s + "%"
	return &p
}

func (r *repoPG) List(ctx context.Context, f ListFilters, limit, offset int) ([]*Bill, int, error) {
	billType := likePattern(f.BillType)
	search := likePattern(f.Search)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bills b`+listWhere,
		f.FromDate, f.ToDate, billType, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+billCols+` FROM bills b`+listWhere+`
		ORDER BY b.created_at DESC
		LIMIT $5 OFFSET $6`,
		f.FromDate, f.ToDate, billType, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bills []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		bills = append(bills, b)
	}
	return bills, total, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, uhid string, limit, offset int) ([]*Bill, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM bills WHERE uhid = $1 AND cancelled_at IS NULL`, uhid).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+billCols+` FROM bills b
		WHERE b.uhid = $1 AND b.cancelled_at IS NULL
		ORDER BY b.created_at DESC
		LIMIT $2 OFFSET $3`,
		uhid, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bills []*Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		bills = append(bills, b)
	}
	return bills, total, rows.Err()
}

func (r *repoPG) PatientExists(ctx context.Context, uhid string) (bool, error) {
	var found string
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT uhid FROM patients WHERE uhid = $1 AND deleted_at IS NULL`, uhid).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *repoPG) OPDExists(ctx context.Context, opdID int64) (bool, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT id FROM opd_queue WHERE id = $1`, opdID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *repoPG) DoctorExists(ctx context.Context, doctorID int64) (bool, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id FROM doctors WHERE id = $1 AND is_active = true`, doctorID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
