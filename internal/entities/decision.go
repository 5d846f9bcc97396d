package entities

// Decision is the outcome of an access-control predicate.
// It is kept as a named type instead of a bare bool so call sites read
// as policy and future audit reasons have somewhere to attach.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool {
	return d == Allow
}

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}
