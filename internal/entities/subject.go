package entities

// Subject is a stored credential subject as loaded from the user store.
// It is the raw material the identity resolver turns into an Identity;
// nothing downstream of the resolver should touch it.
type Subject struct {
	UserID     int64   // Primary key of the user row
	UserKey    string  // Login key the credential refers to
	UserName   string  // Display name
	Level      int     // Authority level (AdminLevel marks administrators)
	DeleteFlag int     // Non-zero means soft-deleted
	GroupIDs   []int64 // Group memberships (may contain duplicates)
}

// Deleted reports whether the subject has been soft-deleted.
// A deleted subject must behave as if it never existed.
func (s *Subject) Deleted() bool {
	return s.DeleteFlag != 0
}
