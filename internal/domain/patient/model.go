package patient

import "time"

// Patient maps to the patients table. PatientID is the human-readable
// clinic identifier minted by the Allocator; both it and DoctorID are fixed
// at creation and never updated.
type Patient struct {
	ID               int64     `json:"id"`
	PatientID        string    `json:"patientId"`
	DoctorID         int64     `json:"doctorId"`
	FullName         string    `json:"fullName"`
	Age              int       `json:"age"`
	Gender           string    `json:"gender"`
	PhoneNumber      string    `json:"phoneNumber"`
	Email            *string   `json:"email,omitempty"`
	Address          *string   `json:"address,omitempty"`
	Prakriti         string    `json:"prakriti"`
	Vikriti          *string   `json:"vikriti,omitempty"`
	ChiefComplaints  string    `json:"chiefComplaints"`
	MedicalHistory   *string   `json:"medicalHistory,omitempty"`
	Allergies        *string   `json:"allergies,omitempty"`
	EmergencyContact *string   `json:"emergencyContact,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// CreateParams carries the client-supplied fields for a new patient.
// The owning doctor and the generated patient id never come from the client.
type CreateParams struct {
	FullName         string  `json:"fullName"`
	Age              int     `json:"age"`
	Gender           string  `json:"gender"`
	PhoneNumber      string  `json:"phoneNumber"`
	Email            *string `json:"email"`
	Address          *string `json:"address"`
	Prakriti         string  `json:"prakriti"`
	Vikriti          *string `json:"vikriti"`
	ChiefComplaints  string  `json:"chiefComplaints"`
	MedicalHistory   *string `json:"medicalHistory"`
	Allergies        *string `json:"allergies"`
	EmergencyContact *string `json:"emergencyContact"`
}

// UpdateParams carries the mutable fields for a patient update. Nil fields
// are left unchanged.
type UpdateParams struct {
	FullName         *string `json:"fullName"`
	Age              *int    `json:"age"`
	Gender           *string `json:"gender"`
	PhoneNumber      *string `json:"phoneNumber"`
	Email            *string `json:"email"`
	Address          *string `json:"address"`
	Prakriti         *string `json:"prakriti"`
	Vikriti          *string `json:"vikriti"`
	ChiefComplaints  *string `json:"chiefComplaints"`
	MedicalHistory   *string `json:"medicalHistory"`
	Allergies        *string `json:"allergies"`
	EmergencyContact *string `json:"emergencyContact"`
}
