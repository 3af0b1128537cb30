package payment

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

const paySelect = `
	SELECT y.id, y.patient_id, y.appointment_id, y.amount::text, y.payment_method, y.status,
		y.transaction_id, y.notes, y.paid_at, y.created_at,
		p.full_name, p.patient_id
	FROM payments y
	JOIN patients p ON p.id = y.patient_id`

func scanPayment(row pgx.Row) (*Payment, error) {
	var y Payment
	var method, status string
	err := row.Scan(&y.ID, &y.PatientID, &y.AppointmentID, &y.Amount, &method, &status,
		&y.TransactionID, &y.Notes, &y.PaidAt, &y.CreatedAt,
		&y.PatientName, &y.PatientCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	y.Method = Method(method)
	y.Status = Status(status)
	return &y, nil
}

func (r *PGRepository) Create(ctx context.Context, p *Payment) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO payments (patient_id, appointment_id, amount, payment_method, status, notes)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
		RETURNING id, created_at`,
		p.PatientID, p.AppointmentID, p.Amount, string(p.Method), string(p.Status), p.Notes)
	return row.Scan(&p.ID, &p.CreatedAt)
}

func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, paySelect+` WHERE y.id = $1`, id))
}

func (r *PGRepository) List(ctx context.Context, f ListFilter) ([]*Payment, int64, error) {
	where := []string{"TRUE"}
	args := []any{}

	if f.DoctorID != 0 {
		args = append(args, f.DoctorID)
		where = append(where, fmt.Sprintf("p.doctor_id = $%d", len(args)))
	}
	if f.PatientID != 0 {
		args = append(args, f.PatientID)
		where = append(where, fmt.Sprintf("y.patient_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("y.status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT COUNT(*) FROM payments y
		JOIN patients p ON p.id = y.patient_id
		WHERE %s`, cond), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(
		`%s WHERE %s ORDER BY y.created_at DESC LIMIT $%d OFFSET $%d`,
		paySelect, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Payment
	for rows.Next() {
		y, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, y)
	}
	return out, total, rows.Err()
}

// UpdateStatus writes the new status in one statement: paid_at is stamped
// exactly when the row moves to completed and kept as-is on every other
// transition.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, update StatusUpdate) (*Payment, error) {
	var updatedID int64
	err := r.pool.QueryRow(ctx, `
		UPDATE payments
		SET status = $2,
			transaction_id = COALESCE($3, transaction_id),
			paid_at = CASE WHEN $2 = 'completed' THEN NOW() ELSE paid_at END
		WHERE id = $1
		RETURNING id`,
		id, string(update.Status), update.TransactionID).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, updatedID)
}

func (r *PGRepository) OwnerDoctor(ctx context.Context, id int64) (int64, error) {
	var doctorID int64
	err := r.pool.QueryRow(ctx, `
		SELECT p.doctor_id FROM payments y
		JOIN patients p ON p.id = y.patient_id
		WHERE y.id = $1`, id).Scan(&doctorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return doctorID, err
}
