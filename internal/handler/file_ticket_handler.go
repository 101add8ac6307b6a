package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/audit"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/authz"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/custody"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/middleware"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/pkg/logger"
	"github.com/Ayazhaider7786/WorkFlow-sub001/prometheus"
)

// CreateFileTicket registers a new tracked document. The creator holds it
// until the first hand-off.
func (h *Handler) CreateFileTicket(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		ProjectID   *uint  `json:"project_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse create file ticket request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	target := authz.Target{}
	if req.ProjectID != nil {
		project, err := h.store.ProjectByID(c.Request().Context(), p.CompanyID, *req.ProjectID)
		if err != nil {
			return respondError(c, log, err)
		}
		target.Project = project
	}

	decision, err := h.decide(c.Request().Context(), p, authz.ActionCreateFileTicket, target)
	if err != nil {
		return respondError(c, log, err)
	}
	if !decision.Allowed {
		return respondDenied(c, decision)
	}

	holder := p.UserID
	ticket := &model.FileTicket{
		CompanyID:       p.CompanyID,
		ProjectID:       req.ProjectID,
		Title:           req.Title,
		Description:     req.Description,
		Status:          string(custody.StatusCreated),
		CurrentHolderID: &holder,
		CreatedByID:     p.UserID,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateFileTicket(c.Request().Context(), ticket); err != nil {
		return respondError(c, log, err)
	}

	prometheus.CustodyTransitionCounter.WithLabelValues("create").Inc()
	h.audit.Record(c.Request().Context(), audit.Entry{
		CompanyID:    p.CompanyID,
		Action:       "fileticket.create",
		EntityType:   "file_ticket",
		EntityID:     ticket.ID,
		NewValue:     ticket.Status,
		ActingUserID: p.UserID,
	})

	log.Info("File ticket created", zap.Uint("ticket_id", ticket.ID))
	return c.JSON(http.StatusCreated, ticket)
}

// GetFileTicket returns one visible ticket together with its custody chain.
func (h *Handler) GetFileTicket(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket ID"})
	}

	ticket, err := h.store.FileTicketByID(c.Request().Context(), p.CompanyID, uint(ticketID))
	if err != nil {
		return respondError(c, log, err)
	}

	decision, err := h.decide(c.Request().Context(), p, authz.ActionViewFileTicket, authz.Target{Ticket: ticket})
	if err != nil {
		return respondError(c, log, err)
	}
	if !decision.Allowed {
		return respondDenied(c, decision)
	}

	chain, err := h.store.TransfersByTicket(c.Request().Context(), ticket.ID)
	if err != nil {
		return respondError(c, log, err)
	}
	if chain == nil {
		chain = []model.FileTicketTransfer{}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ticket":        ticket,
		"custody_chain": chain,
	})
}

// TransferFileTicket hands the ticket to another user.
func (h *Handler) TransferFileTicket(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket ID"})
	}

	var req struct {
		ToUserID uint   `json:"to_user_id"`
		Notes    string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ticket, err := h.machine.Transfer(c.Request().Context(), p, uint(ticketID), req.ToUserID, req.Notes)
	if err != nil {
		return respondError(c, log, err)
	}

	prometheus.CustodyTransitionCounter.WithLabelValues("transfer").Inc()
	return c.JSON(http.StatusOK, ticket)
}

// ReceiveFileTicket acknowledges receipt of an in-transit ticket.
func (h *Handler) ReceiveFileTicket(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket ID"})
	}

	ticket, err := h.machine.Receive(c.Request().Context(), p, uint(ticketID))
	if err != nil {
		return respondError(c, log, err)
	}

	prometheus.CustodyTransitionCounter.WithLabelValues("receive").Inc()
	return c.JSON(http.StatusOK, ticket)
}

// UpdateFileTicketStatus applies a holder-neutral custody move.
func (h *Handler) UpdateFileTicketStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	ticketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket ID"})
	}

	var req struct {
		Status custody.Status `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ticket, err := h.machine.UpdateStatus(c.Request().Context(), p, uint(ticketID), req.Status)
	if err != nil {
		return respondError(c, log, err)
	}

	prometheus.CustodyTransitionCounter.WithLabelValues(string(req.Status)).Inc()
	return c.JSON(http.StatusOK, ticket)
}
