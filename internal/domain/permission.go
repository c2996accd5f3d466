package domain

// Permissions carried in access tokens.
const (
	PermissionPlatformAdmin  = "platform:admin"
	PermissionFactorsRead    = "factors:read"
	PermissionCatalogReload  = "catalog:reload"
	PermissionDocumentsRead  = "documents:read"
	PermissionDocumentsWrite = "documents:write"
	PermissionAuditRead      = "audit:read"
)

var rolePermissions = map[Role][]string{
	RolePlatformAdmin: {PermissionPlatformAdmin},
	RoleOrgAdmin:      {PermissionFactorsRead, PermissionDocumentsRead, PermissionDocumentsWrite, PermissionAuditRead},
	RoleWorker:        {PermissionFactorsRead, PermissionDocumentsRead, PermissionDocumentsWrite},
	RoleAuditor:       {PermissionFactorsRead, PermissionDocumentsRead, PermissionAuditRead},
	RoleViewer:        {PermissionFactorsRead},
}

// PermissionsFor returns the default permissions of role.
// Document reads are still subject to the per-document decrypt policy.
func PermissionsFor(role Role) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// ParseRole returns the Role named s and whether it is known.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := rolePermissions[r]
	return r, ok
}
