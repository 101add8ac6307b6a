package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/authz"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/middleware"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/pkg/logger"
)

// ListActivity returns the company's audit trail, newest first. Admin and
// SuperAdmin only.
func (h *Handler) ListActivity(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	decision, err := h.decide(c.Request().Context(), p, authz.ActionViewActivity, authz.Target{})
	if err != nil {
		return respondError(c, log, err)
	}
	if !decision.Allowed {
		return respondDenied(c, decision)
	}

	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.store.ActivitiesByCompany(c.Request().Context(), p.CompanyID, limit)
	if err != nil {
		return respondError(c, log, err)
	}
	if entries == nil {
		entries = []model.ActivityLog{}
	}
	return c.JSON(http.StatusOK, echo.Map{"activity": entries})
}
