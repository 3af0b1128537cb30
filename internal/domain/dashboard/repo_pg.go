package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository with aggregate SQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) DoctorMetrics(ctx context.Context, doctorID int64, now time.Time) (*Metrics, error) {
	var m Metrics
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patients WHERE doctor_id = $1),
			(SELECT COUNT(*) FROM appointments
				WHERE doctor_id = $1
				  AND appointment_date >= date_trunc('day', $2::timestamptz)
				  AND appointment_date < date_trunc('day', $2::timestamptz) + interval '1 day'),
			(SELECT COALESCE(SUM(y.amount), 0)::float8 FROM payments y
				JOIN patients p ON p.id = y.patient_id
				WHERE p.doctor_id = $1 AND y.status = 'completed'
				  AND y.paid_at >= date_trunc('month', $2::timestamptz)),
			(SELECT COALESCE(SUM(y.amount), 0)::float8 FROM payments y
				JOIN patients p ON p.id = y.patient_id
				WHERE p.doctor_id = $1 AND y.status = 'pending')`,
		doctorID, now).Scan(&m.TotalPatients, &m.TodayAppointments, &m.MonthlyRevenue, &m.PendingPayments)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PGRepository) AdminMetrics(ctx context.Context, now time.Time) (*AdminMetrics, error) {
	var m AdminMetrics
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patients),
			(SELECT COUNT(*) FROM users WHERE role = 'doctor' AND is_active),
			(SELECT COUNT(*) FROM appointments
				WHERE appointment_date >= date_trunc('day', $1::timestamptz)
				  AND appointment_date < date_trunc('day', $1::timestamptz) + interval '1 day'),
			(SELECT COALESCE(SUM(amount), 0)::float8 FROM payments WHERE status = 'completed'),
			(SELECT COALESCE(SUM(amount), 0)::float8 FROM payments WHERE status = 'pending')`,
		now).Scan(&m.TotalPatients, &m.TotalDoctors, &m.TodayAppointments, &m.TotalRevenue, &m.PendingAmount)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PGRepository) DoctorStats(ctx context.Context) ([]*DoctorStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.full_name,
			(SELECT COUNT(*) FROM patients WHERE doctor_id = u.id),
			(SELECT COUNT(*) FROM appointments WHERE doctor_id = u.id),
			(SELECT COALESCE(SUM(y.amount), 0)::float8 FROM payments y
				JOIN patients p ON p.id = y.patient_id
				WHERE p.doctor_id = u.id AND y.status = 'completed')
		FROM users u
		WHERE u.role = 'doctor'
		ORDER BY u.full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*DoctorStats
	for rows.Next() {
		var s DoctorStats
		if err := rows.Scan(&s.DoctorID, &s.DoctorName, &s.PatientCount, &s.AppointmentCount, &s.Revenue); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
