// Package access holds the portal's authorization model: the role
// enumeration, the policy that derives a role from a free-text job title
// (cargo), and the static tables that gate dashboard tabs and permissions.
package access

// Role is a privilege level. The zero value is not a valid role.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleSupervisor  Role = "SUPERVISOR"
	RoleProCalidad  Role = "PRO_CALIDAD"
	RoleProfesional Role = "PROFESIONAL"
	RoleBasico      Role = "BASICO"
)

// LowestRole is what every unknown title and every anonymous caller gets.
const LowestRole = RoleBasico

var allRoles = []Role{RoleAdmin, RoleSupervisor, RoleProCalidad, RoleProfesional, RoleBasico}

// Roles returns every role from highest to lowest privilege.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleProCalidad, RoleProfesional, RoleBasico:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// ParseRole returns the role named by s, if any. Matching is exact.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !r.Valid() {
		return "", false
	}
	return r, true
}

// Permission names a coarse capability independent of tabs.
type Permission string

const (
	PermViewDashboard      Permission = "viewDashboard"
	PermViewReportes       Permission = "viewReportes"
	PermViewDocumentos     Permission = "viewDocumentos"
	PermViewNotificaciones Permission = "viewNotificaciones"
	PermViewConfiguracion  Permission = "viewConfiguracion"
)

// Permissions returns every permission in display order.
func Permissions() []Permission {
	return []Permission{PermViewDashboard, PermViewReportes, PermViewDocumentos, PermViewNotificaciones, PermViewConfiguracion}
}
