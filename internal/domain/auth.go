package domain

// Role labels the kind of actor. Roles drive advisory visibility only.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleSupervisor  Role = "SUPERVISOR"
	RoleWorker      Role = "WORKER"
	RoleRequester   Role = "REQUESTER"
	RoleDirectorate Role = "DIRECTORATE"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleWorker, RoleRequester, RoleDirectorate:
		return true
	}
	return false
}

// SeesAllTickets reports whether the role views the whole ticket set.
func (r Role) SeesAllTickets() bool {
	return r == RoleAdmin || r == RoleSupervisor || r == RoleDirectorate
}

// Actor is the opaque identity recorded in history entries.
type Actor struct {
	Name string
	Role Role
}

// CanView reports whether the ticket is visible to the actor.
func (a Actor) CanView(t *Ticket) bool {
	if a.Role.SeesAllTickets() {
		return true
	}
	if t.Requester == a.Name {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == a.Name
}
