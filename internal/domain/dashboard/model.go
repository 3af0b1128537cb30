package dashboard

// Metrics is the per-doctor dashboard summary. Revenue figures come from
// completed payments of the doctor's patients; pending is the open total.
type Metrics struct {
	TotalPatients     int64   `json:"totalPatients"`
	TodayAppointments int64   `json:"todayAppointments"`
	MonthlyRevenue    float64 `json:"monthlyRevenue"`
	PendingPayments   float64 `json:"pendingPayments"`
}

// AdminMetrics is the clinic-wide summary.
type AdminMetrics struct {
	TotalPatients     int64   `json:"totalPatients"`
	TotalDoctors      int64   `json:"totalDoctors"`
	TodayAppointments int64   `json:"todayAppointments"`
	TotalRevenue      float64 `json:"totalRevenue"`
	PendingAmount     float64 `json:"pendingAmount"`
}

// DoctorStats is one row of the admin per-doctor breakdown.
type DoctorStats struct {
	DoctorID         int64   `json:"doctorId"`
	DoctorName       string  `json:"doctorName"`
	PatientCount     int64   `json:"patientCount"`
	AppointmentCount int64   `json:"appointmentCount"`
	Revenue          float64 `json:"revenue"`
}
