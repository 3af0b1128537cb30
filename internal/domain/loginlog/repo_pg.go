package loginlog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository over PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Append(ctx context.Context, e *Entry) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_login_logs (user_id, ip_address, user_agent, location, session_id, login_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, login_time`,
		e.UserID, e.IPAddress, e.UserAgent, e.Location, e.SessionID, string(e.Status))
	return row.Scan(&e.ID, &e.LoginTime)
}

func (r *PGRepository) Query(ctx context.Context, f Filter) ([]*Entry, int64, error) {
	where := []string{"TRUE"}
	args := []any{}

	if f.UserID != 0 {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("l.user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("l.login_status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM user_login_logs l WHERE %s`, cond), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT l.id, l.user_id, l.login_time, l.ip_address, l.user_agent,
			COALESCE(l.location, ''), COALESCE(l.session_id, ''), l.login_status,
			COALESCE(u.username, ''), COALESCE(u.full_name, '')
		FROM user_login_logs l
		LEFT JOIN users u ON u.id = l.user_id
		WHERE %s
		ORDER BY l.login_time DESC
		LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		var status string
		if err := rows.Scan(&e.ID, &e.UserID, &e.LoginTime, &e.IPAddress, &e.UserAgent,
			&e.Location, &e.SessionID, &status, &e.Username, &e.FullName); err != nil {
			return nil, 0, err
		}
		e.Status = Status(status)
		out = append(out, &e)
	}
	return out, total, rows.Err()
}
