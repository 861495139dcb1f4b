package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Role is the closed set of portal roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Dashboard paths per role.
const (
	AdminDashboardPath   = "/admin/dashboard"
	StudentDashboardPath = "/student/dashboard"
)

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// Dashboard returns the landing page for the role. Anything that is not
// admin lands on the student dashboard.
func (r Role) Dashboard() string {
	if r == RoleAdmin {
		return AdminDashboardPath
	}
	return StudentDashboardPath
}

// Identity is the authenticated principal as issued by the auth service.
// Role is propagated from the login response and never re-derived.
type Identity struct {
	ID               string    `json:"_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Role             Role      `json:"role"`
	EnrollmentNumber string    `json:"enrollmentNumber,omitempty"`
	Course           string    `json:"course,omitempty"`
	Year             int       `json:"year,omitempty"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

func (i *Identity) IsStudent() bool {
	return i != nil && i.Role == RoleStudent
}

// Credential is the opaque bearer token issued by the auth service.
// It formats as a redaction marker so it cannot leak through logs.
type Credential string

func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return "[redacted]"
}

// IsZero reports whether no credential is held.
func (c Credential) IsZero() bool {
	return c == ""
}

// Digest returns a short, stable fingerprint usable as a cache key.
func (c Credential) Digest() string {
	sum := sha256.Sum256([]byte(c))
	return hex.EncodeToString(sum[:8])
}
