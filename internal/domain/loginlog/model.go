package loginlog

import "time"

// Status of a login attempt. locked means the credentials were valid but the
// account is deactivated.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusLocked  Status = "locked"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusLocked:
		return true
	}
	return false
}

// Entry is one append-only audit row. Username and FullName are joined in on
// reads and never stored.
type Entry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	LoginTime time.Time `json:"loginTime"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	Location  string    `json:"location,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	Status    Status    `json:"loginStatus"`

	Username string `json:"username,omitempty"`
	FullName string `json:"fullName,omitempty"`
}
