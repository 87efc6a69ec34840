package auth

// Admin role constants.
const (
	RoleViewer   = "viewer"
	RoleOperator = "operator"
)

// AllAdminRoles returns all valid admin roles.
func AllAdminRoles() []string {
	return []string{RoleViewer, RoleOperator}
}

// WriteRoles returns roles that can modify balances.
func WriteRoles() []string {
	return []string{RoleOperator}
}

func validRole(role string) bool {
	for _, r := range AllAdminRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// CanRead reports whether the claims may read player data.
func (c *Claims) CanRead() bool {
	return c.Realm == RealmServer || (c.Realm == RealmAdmin && validRole(c.Role))
}

// CanWrite reports whether the claims may mutate balances and identities.
func (c *Claims) CanWrite() bool {
	return c.Realm == RealmServer || (c.Realm == RealmAdmin && c.Role == RoleOperator)
}
