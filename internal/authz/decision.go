package authz

// DenyKind classifies why an action was denied. NotFound deliberately
// covers both "does not exist" and "exists outside the caller's visible
// scope": a cross-tenant probe must be indistinguishable from a bogus id.
type DenyKind string

const (
	DenyNotFound     DenyKind = "not_found"
	DenyForbidden    DenyKind = "forbidden"
	DenyBadRequest   DenyKind = "bad_request"
	DenyConflict     DenyKind = "conflict"
	DenyUnauthorized DenyKind = "unauthorized"
)

// Decision is the outcome of a permission check. Denied actions are data,
// not exceptions; callers branch on Allowed and Kind.
type Decision struct {
	Allowed bool     `json:"allowed"`
	Kind    DenyKind `json:"kind,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision of the given kind.
func Deny(kind DenyKind, reason string) Decision {
	return Decision{Allowed: false, Kind: kind, Reason: reason}
}

// DeniedError wraps a denying decision so services can return it through
// an error path without losing the structured kind and reason.
type DeniedError struct {
	Decision Decision
}

func (e *DeniedError) Error() string {
	return string(e.Decision.Kind) + ": " + e.Decision.Reason
}

// ErrDenied converts a denying decision into an error.
func ErrDenied(d Decision) error {
	return &DeniedError{Decision: d}
}
