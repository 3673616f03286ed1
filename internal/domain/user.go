package domain

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleRepairer Role = "repairer"
	RoleAdmin    Role = "admin"
)

// IsValidRole accepts only the self-registerable roles. Admin accounts are
// provisioned by the seed tool, never through the public API.
func IsValidRole(s string) bool {
	return Role(s) == RoleCustomer || Role(s) == RoleRepairer
}

type User struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	PasswordHash    string     `json:"-"`
	Role            Role       `json:"role"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// RepairerProfile carries what matching needs to know about a repairer:
// the trades they work and the postal code anchoring their service area.
type RepairerProfile struct {
	UserID    int64     `json:"user_id"`
	Services  []string  `json:"services"`
	Pincode   string    `json:"pincode"`
	Bio       string    `json:"bio,omitempty"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorksService reports whether the repairer is registered for a trade.
func (p *RepairerProfile) WorksService(serviceType string) bool {
	for _, s := range p.Services {
		if s == serviceType {
			return true
		}
	}
	return false
}
