package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/audit"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/authz"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/middleware"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/pkg/logger"
	"github.com/Ayazhaider7786/WorkFlow-sub001/prometheus"
)

var workItemStatuses = map[model.WorkItemStatus]bool{
	model.WorkItemOpen:       true,
	model.WorkItemInProgress: true,
	model.WorkItemInReview:   true,
	model.WorkItemDone:       true,
	model.WorkItemCancelled:  true,
}

// CreateWorkItem creates a work item in a project visible to the caller.
func (h *Handler) CreateWorkItem(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	var req struct {
		ProjectID   uint   `json:"project_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Priority    string `json:"priority"`
		AssigneeID  *uint  `json:"assignee_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse create work item request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	project, err := h.store.ProjectByID(c.Request().Context(), p.CompanyID, req.ProjectID)
	if err != nil {
		return respondError(c, log, err)
	}

	decision, err := h.decide(c.Request().Context(), p, authz.ActionCreateWorkItem, authz.Target{Project: project})
	if err != nil {
		return respondError(c, log, err)
	}
	if !decision.Allowed {
		return respondDenied(c, decision)
	}

	if req.AssigneeID != nil {
		if _, err := h.store.UserByID(c.Request().Context(), p.CompanyID, *req.AssigneeID); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "assignee is not a user in your company"})
		}
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}

	item := &model.WorkItem{
		CompanyID:   p.CompanyID,
		ProjectID:   project.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.WorkItemOpen,
		Priority:    req.Priority,
		CreatedByID: p.UserID,
		AssigneeID:  req.AssigneeID,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateWorkItem(c.Request().Context(), item); err != nil {
		return respondError(c, log, err)
	}

	prometheus.WorkItemOperationCounter.WithLabelValues("create").Inc()
	h.audit.Record(c.Request().Context(), audit.Entry{
		CompanyID:    p.CompanyID,
		Action:       "workitem.create",
		EntityType:   "work_item",
		EntityID:     item.ID,
		NewValue:     string(item.Status),
		ActingUserID: p.UserID,
	})

	log.Info("Work item created",
		zap.Uint("work_item_id", item.ID),
		zap.Uint("project_id", project.ID))

	return c.JSON(http.StatusCreated, item)
}

// ListWorkItems returns the work items of the caller's visible projects.
func (h *Handler) ListWorkItems(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	visible, err := h.resolver.VisibleProjects(c.Request().Context(), p)
	if err != nil {
		return respondError(c, log, err)
	}

	projectIDs := make([]uint, 0, len(visible))
	for id := range visible {
		projectIDs = append(projectIDs, id)
	}

	items, err := h.store.WorkItemsByProjects(c.Request().Context(), p.CompanyID, projectIDs)
	if err != nil {
		return respondError(c, log, err)
	}
	if items == nil {
		items = []model.WorkItem{}
	}
	return c.JSON(http.StatusOK, echo.Map{"work_items": items})
}

func (h *Handler) loadWorkItem(c echo.Context, p authz.Principal) (*model.WorkItem, error) {
	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid work item ID")
	}
	return h.store.WorkItemByID(c.Request().Context(), p.CompanyID, uint(itemID))
}

// GetWorkItem returns one visible work item.
func (h *Handler) GetWorkItem(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	item, err := h.loadWorkItem(c, p)
	if err != nil {
		return respondError(c, log, err)
	}

	decision, err := h.decide(c.Request().Context(), p, authz.ActionViewWorkItem, authz.Target{WorkItem: item})
	if err != nil {
		return respondError(c, log, err)
	}
	if !decision.Allowed {
		return respondDenied(c, decision)
	}
	return c.JSON(http.StatusOK, item)
}

// UpdateWorkItem updates a work item's mutable fields.
func (h *Handler) UpdateWorkItem(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	item, err := h.loadWorkItem(c, p)
	if err != nil {
		return respondError(c, log, err)
	}

	decision, err := h.decide(c.Request().Context(), p, authz.ActionUpdateWorkItem, authz.Target{WorkItem: item})
	if err != nil {
		return respondError(c, log, err)
	}
	if !decision.Allowed {
		return respondDenied(c, decision)
	}

	var req struct {
		Title       *string               `json:"title,omitempty"`
		Description *string               `json:"description,omitempty"`
		Status      *model.WorkItemStatus `json:"status,omitempty"`
		Priority    *string               `json:"priority,omitempty"`
		AssigneeID  *uint                 `json:"assignee_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	before := string(item.Status)
	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Status != nil {
		if !workItemStatuses[*req.Status] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		item.Status = *req.Status
	}
	if req.Priority != nil {
		item.Priority = *req.Priority
	}
	if req.AssigneeID != nil {
		if _, err := h.store.UserByID(c.Request().Context(), p.CompanyID, *req.AssigneeID); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "assignee is not a user in your company"})
		}
		item.AssigneeID = req.AssigneeID
	}

	if err := h.store.UpdateWorkItem(c.Request().Context(), item); err != nil {
		return respondError(c, log, err)
	}

	prometheus.WorkItemOperationCounter.WithLabelValues("update").Inc()
	h.audit.Record(c.Request().Context(), audit.Entry{
		CompanyID:    p.CompanyID,
		Action:       "workitem.update",
		EntityType:   "work_item",
		EntityID:     item.ID,
		OldValue:     before,
		NewValue:     string(item.Status),
		ActingUserID: p.UserID,
	})

	return c.JSON(http.StatusOK, item)
}

// DeleteWorkItem soft-deletes a work item.
func (h *Handler) DeleteWorkItem(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	item, err := h.loadWorkItem(c, p)
	if err != nil {
		return respondError(c, log, err)
	}

	decision, err := h.decide(c.Request().Context(), p, authz.ActionDeleteWorkItem, authz.Target{WorkItem: item})
	if err != nil {
		return respondError(c, log, err)
	}
	if !decision.Allowed {
		return respondDenied(c, decision)
	}

	if err := h.store.SoftDeleteWorkItem(c.Request().Context(), p.CompanyID, item.ID); err != nil {
		return respondError(c, log, err)
	}

	prometheus.WorkItemOperationCounter.WithLabelValues("delete").Inc()
	h.audit.Record(c.Request().Context(), audit.Entry{
		CompanyID:    p.CompanyID,
		Action:       "workitem.delete",
		EntityType:   "work_item",
		EntityID:     item.ID,
		OldValue:     string(item.Status),
		ActingUserID: p.UserID,
	})

	log.Info("Work item deleted", zap.Uint("work_item_id", item.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "work item deleted"})
}
