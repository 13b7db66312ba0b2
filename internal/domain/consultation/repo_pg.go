package consultation

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

func (r *repoPG) Insert(ctx context.Context, cn *Consultation) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultations (
			uhid, doctor_id, opd_id, diagnosis, treatment_plan,
			followup_instructions, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`,
		cn.UHID, cn.DoctorID, cn.OPDID, cn.Diagnosis, cn.TreatmentPlan,
		cn.FollowupInstructions).
		Scan(&cn.ID, &cn.CreatedAt)
}

const consultationCols = `c.id, c.uhid, c.doctor_id, c.opd_id, c.diagnosis,
	c.treatment_plan, c.followup_instructions, c.created_at`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var cn Consultation
	var pname, pphone, pgender, dname, vtype *string
	err := row.Scan(&cn.ID, &cn.UHID, &cn.DoctorID, &cn.OPDID, &cn.Diagnosis,
		&cn.TreatmentPlan, &cn.FollowupInstructions, &cn.CreatedAt,
		&pname, &pphone, &pgender, &dname, &vtype, &cn.SerialNo, &cn.VisitDate)
	if err != nil {
		return nil, err
	}
	if pname != nil {
		cn.PatientName = *pname
	}
	if pphone != nil {
		cn.PatientPhone = *pphone
	}
	if pgender != nil {
		cn.PatientGender = *pgender
	}
	if dname != nil {
		cn.DoctorName = *dname
	}
	if vtype != nil {
		cn.VisitType = *vtype
	}
	return &cn, nil
}

const consultationSelect = `SELECT ` + consultationCols + `,
	p.first_name || ' ' || p.last_name, p.phone, p.gender, d.name,
	o.visit_type, o.serial_no, o.visit_date
	FROM consultations c
	LEFT JOIN patients p ON c.uhid = p.uhid
	LEFT JOIN doctors d ON c.doctor_id = d.id
	LEFT JOIN opd_queue o ON c.opd_id = o.id`

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Consultation, error) {
	cn, err := scanConsultation(r.conn(ctx).QueryRow(ctx, consultationSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConsultationNotFound
	}
	return cn, err
}

func (r *repoPG) Update(ctx context.Context, id int64, in UpdateInput) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consultations
		SET diagnosis = COALESCE($2, diagnosis),
		    treatment_plan = COALESCE($3, treatment_plan),
		    followup_instructions = COALESCE($4, followup_instructions)
		WHERE id = $1`,
		id, in.Diagnosis, in.TreatmentPlan, in.FollowupInstructions)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConsultationNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM consultations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConsultationNotFound
	}
	return nil
}

const listWhere = `
	WHERE ($1::varchar IS NULL OR c.uhid = $1)
	  AND ($2::bigint IS NULL OR c.doctor_id = $2)
	  AND ($3::date IS NULL OR c.created_at::date = $3)`

func (r *repoPG) List(ctx context.Context, f Filters, limit, offset int) ([]*Consultation, int, error) {
	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM consultations c`+listWhere,
		f.UHID, f.DoctorID, f.Date).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, consultationSelect+listWhere+`
		ORDER BY c.created_at DESC
		LIMIT $4 OFFSET $5`,
		f.UHID, f.DoctorID, f.Date, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := collectConsultations(rows)
	return items, total, err
}

func (r *repoPG) ListByPatient(ctx context.Context, uhid string, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM consultations WHERE uhid = $1`, uhid).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, consultationSelect+`
		WHERE c.uhid = $1
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3`,
		uhid, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := collectConsultations(rows)
	return items, total, err
}

func collectConsultations(rows pgx.Rows) ([]*Consultation, error) {
	var items []*Consultation
	for rows.Next() {
		cn, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, cn)
	}
	return items, rows.Err()
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

func (r *repoPG) DoctorExists(ctx context.Context, doctorID int64) (bool, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id FROM doctors WHERE id = $1 AND is_active = true`, doctorID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *repoPG) OPDExists(ctx context.Context, opdID int64) (bool, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id FROM opd_queue WHERE id = $1`, opdID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
