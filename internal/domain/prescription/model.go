package prescription

import "time"

// Medication is one line of a structured prescription, stored as jsonb.
type Medication struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions,omitempty"`
}

// Prescription maps to the prescriptions table. Either the structured fields
// are filled in or PrescriptionURL points at an uploaded scan; both is fine.
type Prescription struct {
	ID              int64        `json:"id"`
	PatientID       int64        `json:"patientId"`
	DoctorID        int64        `json:"doctorId"`
	AppointmentID   *int64       `json:"appointmentId,omitempty"`
	Diagnosis       string       `json:"diagnosis"`
	TreatmentPlan   string       `json:"treatmentPlan"`
	Medications     []Medication `json:"medications"`
	DietaryAdvice   *string      `json:"dietaryAdvice,omitempty"`
	LifestyleAdvice *string      `json:"lifestyleAdvice,omitempty"`
	FollowUpDate    *time.Time   `json:"followUpDate,omitempty"`
	Notes           *string      `json:"notes,omitempty"`
	PrescriptionURL *string      `json:"prescriptionUrl,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`

	PatientName string `json:"patientName,omitempty"`
	PatientCode string `json:"patientCode,omitempty"`
}

type CreateParams struct {
	PatientID       int64        `json:"patientId"`
	AppointmentID   *int64       `json:"appointmentId"`
	Diagnosis       string       `json:"diagnosis"`
	TreatmentPlan   string       `json:"treatmentPlan"`
	Medications     []Medication `json:"medications"`
	DietaryAdvice   *string      `json:"dietaryAdvice"`
	LifestyleAdvice *string      `json:"lifestyleAdvice"`
	FollowUpDate    *time.Time   `json:"followUpDate"`
	Notes           *string      `json:"notes"`
	PrescriptionURL *string      `json:"prescriptionUrl"`
}
