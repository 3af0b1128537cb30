package prescription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository over PostgreSQL. Medications are stored
// as a jsonb column.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const rxSelect = `
	SELECT r.id, r.patient_id, r.doctor_id, r.appointment_id, r.diagnosis, r.treatment_plan,
		r.medications, r.dietary_advice, r.lifestyle_advice, r.follow_up_date,
		r.notes, r.prescription_url, r.created_at,
		p.full_name, p.patient_id
	FROM prescriptions r
	JOIN patients p ON p.id = r.patient_id`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var rx Prescription
	var meds []byte
	err := row.Scan(&rx.ID, &rx.PatientID, &rx.DoctorID, &rx.AppointmentID, &rx.Diagnosis, &rx.TreatmentPlan,
		&meds, &rx.DietaryAdvice, &rx.LifestyleAdvice, &rx.FollowUpDate,
		&rx.Notes, &rx.PrescriptionURL, &rx.CreatedAt, &rx.PatientName, &rx.PatientCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(meds) > 0 {
		if err := json.Unmarshal(meds, &rx.Medications); err != nil {
			return nil, fmt.Errorf("decode medications for prescription %d: %w", rx.ID, err)
		}
	}
	return &rx, nil
}

func (r *PGRepository) Create(ctx context.Context, p *Prescription) error {
	meds, err := json.Marshal(p.Medications)
	if err != nil {
		return fmt.Errorf("encode medications: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO prescriptions (patient_id, doctor_id, appointment_id, diagnosis, treatment_plan,
			medications, dietary_advice, lifestyle_advice, follow_up_date, notes, prescription_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		p.PatientID, p.DoctorID, p.AppointmentID, p.Diagnosis, p.TreatmentPlan,
		meds, p.DietaryAdvice, p.LifestyleAdvice, p.FollowUpDate, p.Notes, p.PrescriptionURL)
	return row.Scan(&p.ID, &p.CreatedAt)
}

func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Prescription, error) {
	return scanPrescription(r.pool.QueryRow(ctx, rxSelect+` WHERE r.id = $1`, id))
}

func (r *PGRepository) List(ctx context.Context, f ListFilter) ([]*Prescription, int64, error) {
	where := []string{"TRUE"}
	args := []any{}

	if f.DoctorID != 0 {
		args = append(args, f.DoctorID)
		where = append(where, fmt.Sprintf("r.doctor_id = $%d", len(args)))
	}
	if f.PatientID != 0 {
		args = append(args, f.PatientID)
		where = append(where, fmt.Sprintf("r.patient_id = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM prescriptions r WHERE %s`, cond), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`%s WHERE %s ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d`,
		rxSelect, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}
