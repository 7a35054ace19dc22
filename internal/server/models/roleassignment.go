package models

// RoleAssignment is the administrator-editable role document for one user,
// keyed by the user's ID in the userRoles collection.
type RoleAssignment struct {
	Roles     []string
	IsManager bool
}

// RoleAssignmentFromDocument extracts a role assignment from a raw document
// image. Missing or malformed fields degrade to the empty assignment; the
// document is edited by hand and must never break the synchronizer.
func RoleAssignmentFromDocument(doc map[string]any) RoleAssignment {
	ra := RoleAssignment{Roles: []string{}}
	if doc == nil {
		return ra
	}

	switch roles := doc["roles"].(type) {
	case []string:
		ra.Roles = append(ra.Roles, roles...)
	case []any:
		for _, r := range roles {
			if s, ok := r.(string); ok {
				ra.Roles = append(ra.Roles, s)
			}
		}
	}

	if isManager, ok := doc["isManager"].(bool); ok {
		ra.IsManager = isManager
	}
	return ra
}
