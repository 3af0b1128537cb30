package dashboard

import (
	"context"
	"time"
)

// Repository computes the aggregate queries behind the dashboards.
type Repository interface {
	DoctorMetrics(ctx context.Context, doctorID int64, now time.Time) (*Metrics, error)
	AdminMetrics(ctx context.Context, now time.Time) (*AdminMetrics, error)
	DoctorStats(ctx context.Context) ([]*DoctorStats, error)
}
