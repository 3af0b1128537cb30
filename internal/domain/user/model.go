package user

import (
	"time"

	"github.com/ayurclinic/clinic/internal/platform/auth"
)

// User is a staff, doctor or admin account. Password holds the bcrypt hash
// and is never serialized.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      auth.Role `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// UpdateParams carries partial updates for an account. Nil fields are left
// unchanged. Password, when set, is re-hashed.
type UpdateParams struct {
	Password *string `json:"password"`
	Email    *string `json:"email"`
	FullName *string `json:"fullName"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}
