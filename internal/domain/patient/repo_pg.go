package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository over PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const patientColumns = `id, patient_id, doctor_id, full_name, age, gender, phone_number,
	email, address, prakriti, vikriti, chief_complaints, medical_history,
	allergies, emergency_contact, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.PatientID, &p.DoctorID, &p.FullName, &p.Age, &p.Gender,
		&p.PhoneNumber, &p.Email, &p.Address, &p.Prakriti, &p.Vikriti,
		&p.ChiefComplaints, &p.MedicalHistory, &p.Allergies, &p.EmergencyContact,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) Create(ctx context.Context, p *Patient) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (patient_id, doctor_id, full_name, age, gender, phone_number,
			email, address, prakriti, vikriti, chief_complaints, medical_history,
			allergies, emergency_contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`,
		p.PatientID, p.DoctorID, p.FullName, p.Age, p.Gender, p.PhoneNumber,
		p.Email, p.Address, p.Prakriti, p.Vikriti, p.ChiefComplaints,
		p.MedicalHistory, p.Allergies, p.EmergencyContact)
	return row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Patient, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM patients WHERE id = $1`, patientColumns), id)
	return scanPatient(row)
}

func (r *PGRepository) GetByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM patients WHERE patient_id = $1`, patientColumns), patientID)
	return scanPatient(row)
}

func (r *PGRepository) List(ctx context.Context, f ListFilter) ([]*Patient, int64, error) {
	where := []string{"TRUE"}
	args := []any{}

	if f.DoctorID != 0 {
		args = append(args, f.DoctorID)
		where = append(where, fmt.Sprintf("doctor_id = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(full_name ILIKE $%d OR patient_id ILIKE $%d OR phone_number ILIKE $%d)", n, n, n))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM patients WHERE %s`, cond), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM patients WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		patientColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	patients, err := collectPatients(rows)
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func (r *PGRepository) Update(ctx context.Context, id int64, params UpdateParams) (*Patient, error) {
	set := []string{"updated_at = NOW()"}
	args := []any{}

	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if params.FullName != nil {
		add("full_name", *params.FullName)
	}
	if params.Age != nil {
		add("age", *params.Age)
	}
	if params.Gender != nil {
		add("gender", *params.Gender)
	}
	if params.PhoneNumber != nil {
		add("phone_number", *params.PhoneNumber)
	}
	if params.Email != nil {
		add("email", *params.Email)
	}
	if params.Address != nil {
		add("address", *params.Address)
	}
	if params.Prakriti != nil {
		add("prakriti", *params.Prakriti)
	}
	if params.Vikriti != nil {
		add("vikriti", *params.Vikriti)
	}
	if params.ChiefComplaints != nil {
		add("chief_complaints", *params.ChiefComplaints)
	}
	if params.MedicalHistory != nil {
		add("medical_history", *params.MedicalHistory)
	}
	if params.Allergies != nil {
		add("allergies", *params.Allergies)
	}
	if params.EmergencyContact != nil {
		add("emergency_contact", *params.EmergencyContact)
	}

	args = append(args, id)
	row := r.pool.QueryRow(ctx, fmt.Sprintf(
		`UPDATE patients SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args), patientColumns), args...)
	return scanPatient(row)
}

func (r *PGRepository) Recent(ctx context.Context, doctorID int64, limit int) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM patients WHERE doctor_id = $1 ORDER BY created_at DESC LIMIT $2`,
		patientColumns), doctorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPatients(rows)
}

func (r *PGRepository) CountByDoctor(ctx context.Context, doctorID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE doctor_id = $1`, doctorID).Scan(&n)
	return n, err
}

func collectPatients(rows pgx.Rows) ([]*Patient, error) {
	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PGCounterStore implements CounterStore with a single atomic upsert so that
// concurrent allocations for the same doctor never observe the same count.
type PGCounterStore struct {
	pool *pgxpool.Pool
}

func NewPGCounterStore(pool *pgxpool.Pool) *PGCounterStore {
	return &PGCounterStore{pool: pool}
}

func (s *PGCounterStore) Next(ctx context.Context, doctorID int64) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO patient_counters (doctor_id, last_count)
		VALUES ($1, 1)
		ON CONFLICT (doctor_id)
		DO UPDATE SET last_count = patient_counters.last_count + 1, updated_at = NOW()
		RETURNING last_count`, doctorID).Scan(&n)
	return n, err
}
