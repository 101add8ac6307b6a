package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/audit"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/authz"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/custody"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/store"
	"github.com/Ayazhaider7786/WorkFlow-sub001/pkg/jwtutil"
	"github.com/Ayazhaider7786/WorkFlow-sub001/prometheus"
)

// Handler bundles the HTTP endpoints with their collaborators. The
// handlers are thin: they parse, consult the gate, call the store or the
// custody machine, and translate domain results into HTTP responses.
type Handler struct {
	store    store.Store
	resolver *authz.Resolver
	gate     *authz.Gate
	machine  *custody.Machine
	audit    audit.Recorder
	jwt      *jwtutil.JWTUtil
}

// New creates the handler set.
func New(s store.Store, resolver *authz.Resolver, gate *authz.Gate, machine *custody.Machine, recorder audit.Recorder, jwt *jwtutil.JWTUtil) *Handler {
	return &Handler{
		store:    s,
		resolver: resolver,
		gate:     gate,
		machine:  machine,
		audit:    recorder,
		jwt:      jwt,
	}
}

// decide runs the permission gate and records the outcome metric. A
// non-nil error is a storage fault during evaluation; it carries no
// decision and must reach respondError, not respondDenied.
func (h *Handler) decide(ctx context.Context, p authz.Principal, action authz.Action, target authz.Target) (authz.Decision, error) {
	decision, err := h.gate.Resolve(ctx, p, action, target)
	if err != nil {
		prometheus.RecordDecision(string(action), "error")
		return authz.Decision{}, err
	}
	outcome := "allow"
	if !decision.Allowed {
		outcome = string(decision.Kind)
	}
	prometheus.RecordDecision(string(action), outcome)
	return decision, nil
}

// respondDenied maps a denying decision onto the HTTP response. NotFound
// denials use a fixed body so a hidden entity is indistinguishable from a
// missing one.
func respondDenied(c echo.Context, decision authz.Decision) error {
	switch decision.Kind {
	case authz.DenyNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case authz.DenyForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": decision.Reason})
	case authz.DenyBadRequest:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": decision.Reason})
	case authz.DenyConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": decision.Reason})
	default:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
}

// respondError translates domain errors into HTTP responses.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	var denied *authz.DeniedError
	if errors.As(err, &denied) {
		return respondDenied(c, denied.Decision)
	}

	var transition *custody.TransitionError
	if errors.As(err, &transition) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": transition.Error()})
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return c.JSON(httpErr.Code, echo.Map{"error": httpErr.Message})
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, store.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting concurrent update, retry"})
	case errors.Is(err, store.ErrLastManager):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "project must keep at least one manager"})
	case errors.Is(err, store.ErrDuplicateMember):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user is already a member of the project"})
	}

	log.Error("Unexpected error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
