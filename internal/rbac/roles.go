package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
	RoleViewer  = "viewer"

	// ActorSystem is the sentinel actor recorded on audit rows produced by
	// background jobs (retention sweep) rather than a user request.
	ActorSystem = "system"
)

// Permission strings. Handlers gate on these, never on raw role names.
const (
	PermInventoryRead  = "inventory:read"
	PermInventoryWrite = "inventory:write"
	PermProjectsRead   = "projects:read"
	PermProjectsWrite  = "projects:write"
	PermUsersRead      = "users:read"
	PermUsersWrite     = "users:write"
	PermAuditRead      = "audit:read"
	PermTrashRead      = "trash:read"
	PermTrashRecover   = "trash:recover"
	PermTrashCleanup   = "trash:cleanup"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// rolePermissions is the fixed role -> permission table.
// Derivation is deterministic; there is no per-user permission storage.
var rolePermissions = map[string][]string{
	RoleViewer: {
		PermInventoryRead,
		PermProjectsRead,
	},
	RoleStaff: {
		PermInventoryRead,
		PermInventoryWrite,
		PermProjectsRead,
		PermProjectsWrite,
	},
	RoleManager: {
		PermInventoryRead,
		PermInventoryWrite,
		PermProjectsRead,
		PermProjectsWrite,
		PermUsersRead,
		PermAuditRead,
		PermTrashRead,
		PermTrashRecover,
	},
	RoleAdmin: {
		PermInventoryRead,
		PermInventoryWrite,
		PermProjectsRead,
		PermProjectsWrite,
		PermUsersRead,
		PermUsersWrite,
		PermAuditRead,
		PermTrashRead,
		PermTrashRecover,
		PermTrashCleanup,
	},
}

// PermissionsFor resolves the permission set for a role.
// Unknown roles fail closed to the viewer (read-only) set.
func PermissionsFor(role string) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		perms = rolePermissions[RoleViewer]
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// ValidRole reports whether role is one of the assignable role names.
// The system sentinel is not assignable to users.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}
