package authz

import "github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"

// Principal is the authenticated identity a request acts as. A zero
// Principal (no user id, no company) carries the lowest possible privilege
// and an empty visible set; it is never treated as elevated trust.
type Principal struct {
	UserID    uint
	CompanyID uint
	Role      model.SystemRole
}

// Authenticated reports whether the principal resolves to a real,
// company-bound user.
func (p Principal) Authenticated() bool {
	return p.UserID != 0 && p.CompanyID != 0 && p.Role.Valid()
}
