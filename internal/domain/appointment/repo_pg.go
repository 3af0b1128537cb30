package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

const apptSelect = `
	SELECT a.id, a.patient_id, a.doctor_id, a.appointment_date, a.duration,
		a.type, a.status, a.notes, a.created_at,
		p.full_name, p.patient_id
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentDate, &a.Duration,
		&a.Type, &status, &a.Notes, &a.CreatedAt, &a.PatientName, &a.PatientCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Status = Status(status)
	return &a, nil
}

func (r *PGRepository) Create(ctx context.Context, a *Appointment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, appointment_date, duration, type, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		a.PatientID, a.DoctorID, a.AppointmentDate, a.Duration, a.Type, string(a.Status), a.Notes)
	return row.Scan(&a.ID, &a.CreatedAt)
}

func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, apptSelect+` WHERE a.id = $1`, id))
}

func (r *PGRepository) List(ctx context.Context, f ListFilter) ([]*Appointment, int64, error) {
	where := []string{"TRUE"}
	args := []any{}

	if f.DoctorID != 0 {
		args = append(args, f.DoctorID)
		where = append(where, fmt.Sprintf("a.doctor_id = $%d", len(args)))
	}
	if f.Date != nil {
		args = append(args, *f.Date)
		n := len(args)
		where = append(where, fmt.Sprintf(
			"a.appointment_date >= date_trunc('day', $%d::timestamptz) AND a.appointment_date < date_trunc('day', $%d::timestamptz) + interval '1 day'", n, n))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM appointments a WHERE %s`, cond), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`%s WHERE %s ORDER BY a.appointment_date ASC LIMIT $%d OFFSET $%d`,
		apptSelect, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Update(ctx context.Context, id int64, params UpdateParams) (*Appointment, error) {
	set := []string{}
	args := []any{}

	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if params.AppointmentDate != nil {
		add("appointment_date", *params.AppointmentDate)
	}
	if params.Duration != nil {
		add("duration", *params.Duration)
	}
	if params.Type != nil {
		add("type", *params.Type)
	}
	if params.Status != nil {
		add("status", string(*params.Status))
	}
	if params.Notes != nil {
		add("notes", *params.Notes)
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	var updatedID int64
	err := r.pool.QueryRow(ctx, fmt.Sprintf(
		`UPDATE appointments SET %s WHERE id = $%d RETURNING id`,
		strings.Join(set, ", "), len(args)), args...).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, updatedID)
}

func (r *PGRepository) CountToday(ctx context.Context, doctorID int64, now time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE doctor_id = $1
		  AND appointment_date >= date_trunc('day', $2::timestamptz)
		  AND appointment_date < date_trunc('day', $2::timestamptz) + interval '1 day'`,
		doctorID, now).Scan(&n)
	return n, err
}
