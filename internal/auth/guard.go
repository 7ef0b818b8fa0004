package auth

// Decision is the outcome of an ownership check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize allows access only when the resource belongs to the identity.
// Callers must have already established that the resource exists.
func Authorize(ownerID string, id Identity) Decision {
	if ownerID != "" && ownerID == id.SubjectID {
		return Allow
	}
	return Deny
}
