package domain

import "time"

// AuthorityName enumerates role tags that can be granted to a principal.
type AuthorityName string

const (
	AuthorityPre   AuthorityName = "ROLE_PRE"
	AuthorityUser  AuthorityName = "ROLE_USER"
	AuthorityAdmin AuthorityName = "ROLE_ADMIN"
)

// DefaultAuthority is assigned to every principal at signup.
const DefaultAuthority = AuthorityPre

// Valid reports whether the name is a known authority.
func (a AuthorityName) Valid() bool {
	switch a {
	case AuthorityPre, AuthorityUser, AuthorityAdmin:
		return true
	}
	return false
}

// Principal is a user record owned by the principal store.
type Principal struct {
	Username     string
	PasswordHash string
	Nickname     string
	Enabled      bool
	Authorities  []AuthorityName
	CreatedAt    time.Time
}

// Authority links one role tag to a principal by username.
type Authority struct {
	ID        int64
	Username  string
	Authority AuthorityName
	CreatedAt time.Time
}

// VerifiedPrincipal is the result of a successful credential check.
type VerifiedPrincipal struct {
	Username    string
	Authorities []AuthorityName
}

// AuthorityStrings returns the authorities as plain strings.
func (v VerifiedPrincipal) AuthorityStrings() []string {
	out := make([]string, 0, len(v.Authorities))
	for _, a := range v.Authorities {
		out = append(out, string(a))
	}
	return out
}
