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

// CreateProject creates a project with its initial memberships. The
// request must designate at least one manager; every designated user must
// belong to the caller's company.
func (h *Handler) CreateProject(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	var req struct {
		Key         string `json:"key"`
		Name        string `json:"name"`
		Description string `json:"description"`
		ManagerIDs  []uint `json:"manager_ids"`
		Members     []struct {
			UserID uint              `json:"user_id"`
			Role   model.ProjectRole `json:"role"`
		} `json:"members,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse create project request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Key == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "key and name are required"})
	}

	decision, err := h.decide(c.Request().Context(), p, authz.ActionCreateProject, authz.Target{ManagerIDs: req.ManagerIDs})
	if err != nil {
		return respondError(c, log, err)
	}
	if !decision.Allowed {
		return respondDenied(c, decision)
	}

	members := make([]model.ProjectMember, 0, len(req.ManagerIDs)+len(req.Members))
	seen := map[uint]bool{}
	for _, managerID := range req.ManagerIDs {
		if _, err := h.store.UserByID(c.Request().Context(), p.CompanyID, managerID); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "designated manager is not a user in your company"})
		}
		if seen[managerID] {
			continue
		}
		seen[managerID] = true
		members = append(members, model.ProjectMember{UserID: managerID, Role: model.ProjectRoleManager})
	}
	for _, member := range req.Members {
		if seen[member.UserID] {
			continue
		}
		if !member.Role.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project role"})
		}
		if _, err := h.store.UserByID(c.Request().Context(), p.CompanyID, member.UserID); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "member is not a user in your company"})
		}
		seen[member.UserID] = true
		members = append(members, model.ProjectMember{UserID: member.UserID, Role: member.Role})
	}

	project := &model.Project{
		CompanyID:   p.CompanyID,
		Key:         req.Key,
		Name:        req.Name,
		Description: req.Description,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateProject(c.Request().Context(), project, members); err != nil {
		return respondError(c, log, err)
	}

	prometheus.ProjectOperationCounter.WithLabelValues("create").Inc()
	h.audit.Record(c.Request().Context(), audit.Entry{
		CompanyID:    p.CompanyID,
		Action:       "project.create",
		EntityType:   "project",
		EntityID:     project.ID,
		NewValue:     project.Key,
		ActingUserID: p.UserID,
	})

	log.Info("Project created",
		zap.Uint("project_id", project.ID),
		zap.String("key", project.Key))

	return c.JSON(http.StatusCreated, project)
}

// ListProjects returns the projects visible to the caller.
func (h *Handler) ListProjects(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	visible, err := h.resolver.VisibleProjects(c.Request().Context(), p)
	if err != nil {
		return respondError(c, log, err)
	}

	projects, err := h.store.ProjectsByCompany(c.Request().Context(), p.CompanyID)
	if err != nil {
		return respondError(c, log, err)
	}

	filtered := make([]model.Project, 0, len(projects))
	for _, project := range projects {
		if visible[project.ID] {
			filtered = append(filtered, project)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"projects": filtered})
}

// GetProject returns one visible project with its members.
func (h *Handler) GetProject(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	visible, err := h.resolver.VisibleProjects(c.Request().Context(), p)
	if err != nil {
		return respondError(c, log, err)
	}
	if !visible[uint(projectID)] {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	project, err := h.store.ProjectByID(c.Request().Context(), p.CompanyID, uint(projectID))
	if err != nil {
		return respondError(c, log, err)
	}
	members, err := h.store.MembersByProject(c.Request().Context(), project.ID)
	if err != nil {
		return respondError(c, log, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"project": project,
		"members": members,
	})
}

// AddProjectMember adds a user to a project.
func (h *Handler) AddProjectMember(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	var req struct {
		UserID uint              `json:"user_id"`
		Role   model.ProjectRole `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}
	if req.Role == "" {
		req.Role = model.ProjectRoleMember
	}

	project, err := h.store.ProjectByID(c.Request().Context(), p.CompanyID, uint(projectID))
	if err != nil {
		return respondError(c, log, err)
	}

	decision, err := h.decide(c.Request().Context(), p, authz.ActionAddProjectMember, authz.Target{
		Project:    project,
		MemberRole: req.Role,
	})
	if err != nil {
		return respondError(c, log, err)
	}
	if !decision.Allowed {
		return respondDenied(c, decision)
	}

	if _, err := h.store.UserByID(c.Request().Context(), p.CompanyID, req.UserID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user is not in your company"})
	}

	member := &model.ProjectMember{
		ProjectID: project.ID,
		UserID:    req.UserID,
		Role:      req.Role,
	}
	if err := h.store.AddProjectMember(c.Request().Context(), member); err != nil {
		return respondError(c, log, err)
	}

	prometheus.ProjectOperationCounter.WithLabelValues("add_member").Inc()
	h.audit.Record(c.Request().Context(), audit.Entry{
		CompanyID:    p.CompanyID,
		Action:       "project.add_member",
		EntityType:   "project",
		EntityID:     project.ID,
		NewValue:     string(member.Role),
		ActingUserID: p.UserID,
	})

	log.Info("Project member added",
		zap.Uint("project_id", project.ID),
		zap.Uint("user_id", req.UserID),
		zap.String("role", string(req.Role)))

	return c.JSON(http.StatusCreated, member)
}

// RemoveProjectMember removes a user from a project. Removing the last
// manager-role member is rejected and the membership set stays unchanged.
func (h *Handler) RemoveProjectMember(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	project, err := h.store.ProjectByID(c.Request().Context(), p.CompanyID, uint(projectID))
	if err != nil {
		return respondError(c, log, err)
	}

	members, err := h.store.MembersByProject(c.Request().Context(), project.ID)
	if err != nil {
		return respondError(c, log, err)
	}
	var target *model.ProjectMember
	for i := range members {
		if members[i].UserID == uint(userID) {
			target = &members[i]
			break
		}
	}
	if target == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	decision, err := h.decide(c.Request().Context(), p, authz.ActionRemoveProjectMember, authz.Target{
		Project: project,
		Member:  target,
	})
	if err != nil {
		return respondError(c, log, err)
	}
	if !decision.Allowed {
		return respondDenied(c, decision)
	}

	if err := h.store.RemoveProjectMember(c.Request().Context(), project.ID, target.UserID); err != nil {
		return respondError(c, log, err)
	}

	prometheus.ProjectOperationCounter.WithLabelValues("remove_member").Inc()
	h.audit.Record(c.Request().Context(), audit.Entry{
		CompanyID:    p.CompanyID,
		Action:       "project.remove_member",
		EntityType:   "project",
		EntityID:     project.ID,
		OldValue:     string(target.Role),
		ActingUserID: p.UserID,
	})

	log.Info("Project member removed",
		zap.Uint("project_id", project.ID),
		zap.Uint("user_id", target.UserID))

	return c.JSON(http.StatusOK, echo.Map{"message": "member removed"})
}
