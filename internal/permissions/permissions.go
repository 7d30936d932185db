// Package permissions maps roles to the capabilities they may exercise.
// The table is a client-side fail-fast check only; the server remains
// authoritative for every privileged operation.
package permissions

// Role is the closed set of roles the server assigns.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleSupport Role = "support"
	RoleUser    Role = "user"
)

// Capability is a named permission checked before an action proceeds.
type Capability string

const (
	CanUpload      Capability = "canUpload"
	CanRunAI       Capability = "canRunAI"
	CanViewMetrics Capability = "canViewMetrics"
	CanViewDocs    Capability = "canViewDocs"
	CanManageUsers Capability = "canManageUsers"
)

// grants defines every (role, capability) pair. Every role has an explicit
// value for every capability.
var grants = map[Role]map[Capability]bool{
	RoleAdmin: {
		CanUpload:      true,
		CanRunAI:       true,
		CanViewMetrics: true,
		CanViewDocs:    true,
		CanManageUsers: true,
	},
	RoleSupport: {
		CanUpload:      false,
		CanRunAI:       false,
		CanViewMetrics: true,
		CanViewDocs:    true,
		CanManageUsers: true,
	},
	RoleUser: {
		CanUpload:      true,
		CanRunAI:       true,
		CanViewMetrics: false,
		CanViewDocs:    true,
		CanManageUsers: false,
	},
}

// Can reports whether the role holds the capability. Unknown roles and
// capabilities are denied rather than failing.
func Can(role Role, cap Capability) bool {
	caps, ok := grants[role]
	if !ok {
		return false
	}
	return caps[cap]
}

// Roles returns the closed role enumeration.
func Roles() []Role {
	return []Role{RoleAdmin, RoleSupport, RoleUser}
}

// Capabilities returns the closed capability enumeration.
func Capabilities() []Capability {
	return []Capability{CanUpload, CanRunAI, CanViewMetrics, CanViewDocs, CanManageUsers}
}

// Valid reports whether the role belongs to the closed enumeration. Used
// to validate admin role-change input before it reaches the network.
func Valid(role Role) bool {
	_, ok := grants[role]
	return ok
}
