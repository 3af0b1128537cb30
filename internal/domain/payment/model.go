package payment

import "time"

// Status of a payment. paid_at is owned by the completed transition and is
// never settable directly.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// Method of payment.
type Method string

const (
	MethodCash       Method = "cash"
	MethodCard       Method = "card"
	MethodUPI        Method = "upi"
	MethodNetbanking Method = "netbanking"
	MethodCheque     Method = "cheque"
	MethodOnline     Method = "online"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodUPI, MethodNetbanking, MethodCheque, MethodOnline:
		return true
	}
	return false
}

// Payment maps to the payments table. There is no doctor column; ownership
// follows the owning patient. Amount is the decimal column rendered as text
// to avoid float drift.
type Payment struct {
	ID            int64      `json:"id"`
	PatientID     int64      `json:"patientId"`
	AppointmentID *int64     `json:"appointmentId,omitempty"`
	Amount        string     `json:"amount"`
	Method        Method     `json:"paymentMethod"`
	Status        Status     `json:"status"`
	TransactionID *string    `json:"transactionId,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`

	PatientName string `json:"patientName,omitempty"`
	PatientCode string `json:"patientCode,omitempty"`
}

type CreateParams struct {
	PatientID     int64   `json:"patientId"`
	AppointmentID *int64  `json:"appointmentId"`
	Amount        string  `json:"amount"`
	Method        Method  `json:"paymentMethod"`
	Notes         *string `json:"notes"`
}

type StatusUpdate struct {
	Status        Status  `json:"status"`
	TransactionID *string `json:"transactionId"`
}
