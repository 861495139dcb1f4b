package entities

import "time"

// AuthEventType names a session lifecycle transition.
type AuthEventType string

const (
	AuthEventLogin         AuthEventType = "login"
	AuthEventLoginFailed   AuthEventType = "login_failed"
	AuthEventSignup        AuthEventType = "signup"
	AuthEventLogout        AuthEventType = "logout"
	AuthEventForcedLogout  AuthEventType = "forced_logout"
	AuthEventHydrateFailed AuthEventType = "hydrate_failed"
)

type AuthEventStatus string

const (
	AuthStatusSuccess AuthEventStatus = "success"
	AuthStatusFailed  AuthEventStatus = "failed"
)

// AuthEvent is a local, non-authoritative record of a session transition.
// The credential is never stored.
type AuthEvent struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    string          `gorm:"index;size:64" json:"user_id"`
	Email     string          `gorm:"size:255" json:"email,omitempty"`
	Role      Role            `gorm:"size:20" json:"role,omitempty"`
	EventType AuthEventType   `gorm:"index;size:50" json:"event_type"`
	Path      string          `gorm:"size:255" json:"path,omitempty"`
	IPAddress string          `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent string          `gorm:"size:500" json:"user_agent,omitempty"`
	Status    AuthEventStatus `gorm:"size:20" json:"status"`
	ErrorMsg  string          `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

func (AuthEvent) TableName() string {
	return "auth_events"
}
