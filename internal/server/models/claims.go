package models

// CustomClaims is the extra data a trusted backend process attaches to a
// user's auth token: role names plus the manager flag. The client sees updated
// claims only after its next token refresh.
type CustomClaims struct {
	Roles     []string `json:"roles"`
	IsManager bool     `json:"isManager"`
}

// Equal compares claims the way the synchronizer does: role order matters
// (the serialized form is what travels in the token).
func (c CustomClaims) Equal(other CustomClaims) bool {
	if c.IsManager != other.IsManager {
		return false
	}
	if len(c.Roles) != len(other.Roles) {
		return false
	}
	for i := range c.Roles {
		if c.Roles[i] != other.Roles[i] {
			return false
		}
	}
	return true
}
