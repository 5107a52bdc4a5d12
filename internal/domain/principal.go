package domain

type Role string

const (
	RoleRegistrant Role = "registrant"
	RoleOrganizer  Role = "organizer"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleRegistrant, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID   string
	Role Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanManageEvent reports whether p may modify or inspect the registrations of e.
func (p Principal) CanManageEvent(e Event) bool {
	if p.IsAdmin() {
		return true
	}
	return p.Role == RoleOrganizer && p.ID != "" && p.ID == e.OrganizerID
}

// CanCancelRegistration reports whether p may cancel r.
func (p Principal) CanCancelRegistration(r Registration) bool {
	return p.IsAdmin() || (p.ID != "" && p.ID == r.RegistrantID)
}
