package rbac

// Authority names. Keep these stable; they appear verbatim in the scope
// claim of issued access tokens.
const (
	AuthorityUser      = "USER"
	AuthorityLibrarian = "LIBRARIAN"
	AuthorityAdmin     = "ADMIN"
)

// Known reports whether the authority is one this service issues.
func Known(authority string) bool {
	switch authority {
	case AuthorityUser, AuthorityLibrarian, AuthorityAdmin:
		return true
	default:
		return false
	}
}
