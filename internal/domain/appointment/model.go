package appointment

import "time"

// Status of an appointment. The set is closed but transitions between
// members are unconstrained.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// DefaultDuration is applied when a booking omits the duration, in minutes.
const DefaultDuration = 30

// Appointment maps to the appointments table. PatientName and PatientCode
// are joined in on reads.
type Appointment struct {
	ID              int64     `json:"id"`
	PatientID       int64     `json:"patientId"`
	DoctorID        int64     `json:"doctorId"`
	AppointmentDate time.Time `json:"appointmentDate"`
	Duration        int       `json:"duration"`
	Type            string    `json:"type"`
	Status          Status    `json:"status"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`

	PatientName string `json:"patientName,omitempty"`
	PatientCode string `json:"patientCode,omitempty"`
}

type CreateParams struct {
	PatientID       int64     `json:"patientId"`
	AppointmentDate time.Time `json:"appointmentDate"`
	Duration        int       `json:"duration"`
	Type            string    `json:"type"`
	Notes           *string   `json:"notes"`
}

type UpdateParams struct {
	AppointmentDate *time.Time `json:"appointmentDate"`
	Duration        *int       `json:"duration"`
	Type            *string    `json:"type"`
	Status          *Status    `json:"status"`
	Notes           *string    `json:"notes"`
}
