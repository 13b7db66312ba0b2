package opd

import (
	"context"
	"errors"
	"time"

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

// lockClassOPD namespaces queue-group advisory locks away from other
// subsystems sharing the database.
const lockClassOPD = 1

func (r *repoPG) LockGroup(ctx context.Context, doctorID int64, visitDate time.Time) error {
	// One lock per (doctor, date) group: fold both into the second key.
	day := int32(visitDate.Unix() / 86400)
	key := int32(doctorID)<<12 ^ day
	_, err := r.conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, lockClassOPD, key)
	return err
}

func (r *repoPG) NextSerial(ctx context.Context, doctorID int64, visitDate time.Time) (int, error) {
	var next int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(MAX(serial_no), 0) + 1
		FROM opd_queue
		WHERE visit_date = $1 AND doctor_id = $2`,
		visitDate, doctorID).Scan(&next)
	return next, err
}

func (r *repoPG) Insert(ctx context.Context, e *QueueEntry) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO opd_queue (
			uhid, doctor_id, visit_type, visit_type_id, visit_amount,
			serial_no, visit_date, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at`,
		e.UHID, e.DoctorID, e.VisitType, e.VisitTypeID, e.VisitAmount,
		e.SerialNo, e.VisitDate, e.Status).
		Scan(&e.ID, &e.CreatedAt)
}

const entryCols = `oq.id, oq.uhid, oq.doctor_id, oq.visit_type, oq.visit_type_id,
	oq.visit_amount, oq.serial_no, oq.visit_date, oq.status, oq.created_at`

func scanEntry(row pgx.Row) (*QueueEntry, error) {
	var e QueueEntry
	var pname, pphone, pgender, dname *string
	err := row.Scan(&e.ID, &e.UHID, &e.DoctorID, &e.VisitType, &e.VisitTypeID,
		&e.VisitAmount, &e.SerialNo, &e.VisitDate, &e.Status, &e.CreatedAt,
		&pname, &pphone, &pgender, &dname)
	if err != nil {
		return nil, err
	}
	if pname != nil {
		e.PatientName = *pname
	}
	if pphone != nil {
		e.PatientPhone = *pphone
	}
	if pgender != nil {
		e.PatientGender = *pgender
	}
	if dname != nil {
		e.DoctorName = *dname
	}
	return &e, nil
}

const entryJoins = `
	FROM opd_queue oq
	LEFT JOIN patients p ON oq.uhid = p.uhid
	LEFT JOIN doctors d ON oq.doctor_id = d.id`

const entrySelect = `SELECT ` + entryCols + `,
	p.first_name || ' ' || p.last_name, p.phone, p.gender, d.name` + entryJoins

func (r *repoPG) GetByID(ctx context.Context, id int64) (*QueueEntry, error) {
	e, err := scanEntry(r.conn(ctx).QueryRow(ctx, entrySelect+` WHERE oq.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	return e, err
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM opd_queue WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *repoPG) Renumber(ctx context.Context, doctorID int64, visitDate time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE opd_queue
		SET serial_no = sub.new_serial
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY created_at) AS new_serial
			FROM opd_queue
			WHERE doctor_id = $1 AND visit_date = $2
		) AS sub
		WHERE opd_queue.id = sub.id`,
		doctorID, visitDate)
	return err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id int64, status string) (*QueueEntry, error) {
	var e QueueEntry
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE opd_queue
		SET status = $2
		WHERE id = $1
		RETURNING id, uhid, doctor_id, visit_type, visit_type_id,
			visit_amount, serial_no, visit_date, status, created_at`,
		id, status).
		Scan(&e.ID, &e.UHID, &e.DoctorID, &e.VisitType, &e.VisitTypeID,
			&e.VisitAmount, &e.SerialNo, &e.VisitDate, &e.Status, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repoPG) List(ctx context.Context, f QueueFilters, limit, offset int) ([]*QueueEntry, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM opd_queue oq
		WHERE ($1::date IS NULL OR oq.visit_date = $1)
		  AND ($2::bigint IS NULL OR oq.doctor_id = $2)
		  AND ($3::text IS NULL OR oq.status = $3)`,
		f.VisitDate, f.DoctorID, f.Status).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, entrySelect+`
		WHERE ($1::date IS NULL OR oq.visit_date = $1)
		  AND ($2::bigint IS NULL OR oq.doctor_id = $2)
		  AND ($3::text IS NULL OR oq.status = $3)
		ORDER BY oq.visit_date ASC, oq.serial_no ASC
		LIMIT $4 OFFSET $5`,
		f.VisitDate, f.DoctorID, f.Status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*QueueEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, uhid string, limit, offset int) ([]*QueueEntry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM opd_queue WHERE uhid = $1`, uhid).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, entrySelect+`
		WHERE oq.uhid = $1
		ORDER BY oq.visit_date DESC, oq.created_at DESC
		LIMIT $2 OFFSET $3`,
		uhid, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*QueueEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Doctors(ctx context.Context) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name FROM doctors WHERE is_active = true ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		doctors = append(doctors, &d)
	}
	return doctors, rows.Err()
}

func (r *repoPG) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	var d Doctor
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name FROM doctors WHERE id = $1 AND is_active = true`, id).
		Scan(&d.ID, &d.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) VisitTypes(ctx context.Context) ([]*VisitType, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, default_amount FROM visit_types WHERE is_active = true ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*VisitType
	for rows.Next() {
		var vt VisitType
		if err := rows.Scan(&vt.ID, &vt.Name, &vt.DefaultAmount); err != nil {
			return nil, err
		}
		types = append(types, &vt)
	}
	return types, rows.Err()
}

func (r *repoPG) GetVisitType(ctx context.Context, id int64) (*VisitType, error) {
	var vt VisitType
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, default_amount FROM visit_types WHERE id = $1 AND is_active = true`, id).
		Scan(&vt.ID, &vt.Name, &vt.DefaultAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVisitTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vt, nil
}
