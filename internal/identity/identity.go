package identity

// Role is the closed set of platform roles.
type Role string

const (
	RoleUnassigned Role = "UNASSIGNED"
	RolePatient    Role = "PATIENT"
	RoleDoctor     Role = "DOCTOR"
	RoleAdmin      Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUnassigned, RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Identity describes the authenticated caller as asserted by the external
// identity provider: a durable user id, the platform role, and the active
// subscription plan tiers.
type Identity struct {
	UserID string
	Role   Role
	Plans  []string
}

// HasPlan reports whether the caller's subscription includes the given tier.
func (id Identity) HasPlan(tier string) bool {
	for _, p := range id.Plans {
		if p == tier {
			return true
		}
	}
	return false
}
