package model

import (
	"strings"
	"time"
)

// Role is the authorization tier carried in the `profiles.role` column and in
// the JWT "role" claim. OWNER has full authority-console access, the middle
// tiers exist for audit and reporting views, USER is the default for
// self-registered identities and R is a legacy restricted tier kept for old
// rows.
type Role string

const (
	RoleOwner      Role = "OWNER"
	RoleAuditor    Role = "AUDITOR"
	RoleManager    Role = "MANAGER"
	RoleObserver   Role = "OBSERVER"
	RoleUser       Role = "USER"
	RoleRestricted Role = "R"
)

// ParseRole normalizes a stored or client-supplied role string. Unknown
// values collapse to USER so a corrupt row can never grant authority.
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleOwner:
		return RoleOwner
	case RoleAuditor:
		return RoleAuditor
	case RoleManager:
		return RoleManager
	case RoleObserver:
		return RoleObserver
	case RoleRestricted:
		return RoleRestricted
	default:
		return RoleUser
	}
}

// Allowed reports whether role is one of the allowed set. Pure predicate so
// middleware and handlers share one authorization decision.
func (r Role) Allowed(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// IsMasterEmail reports whether email is on the injected master allow-list.
// Master emails always resolve to OWNER regardless of the stored role.
func IsMasterEmail(email string, masters []string) bool {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return false
	}
	for _, m := range masters {
		if strings.ToLower(strings.TrimSpace(m)) == e {
			return true
		}
	}
	return false
}

// EffectiveRole applies the master-email override to a stored role.
func EffectiveRole(stored Role, email string, masters []string) Role {
	if IsMasterEmail(email, masters) {
		return RoleOwner
	}
	return stored
}

// Provider identifies how an identity was created.
type Provider string

const (
	ProviderEmail  Provider = "EMAIL"
	ProviderGoogle Provider = "GOOGLE"
)

// UserRecord is the merged identity view returned by the session endpoint:
// credential identity fields joined with the profiles row.
type UserRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	Provider  Provider  `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}
