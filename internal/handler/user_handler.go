package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/audit"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/authz"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/middleware"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/pkg/logger"
	"github.com/Ayazhaider7786/WorkFlow-sub001/prometheus"
)

var createActionsByRole = map[model.SystemRole]authz.Action{
	model.RoleAdmin:   authz.ActionCreateAdmin,
	model.RoleManager: authz.ActionCreateManager,
	model.RoleQA:      authz.ActionCreateQA,
	model.RoleMember:  authz.ActionCreateMember,
}

// CreateUser creates a user inside the caller's company. The granted role
// decides which gate action applies; the SuperAdmin designation cannot be
// granted here, only moved with TransferSuperAdmin.
func (h *Handler) CreateUser(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	var req struct {
		Email      string           `json:"email"`
		Password   string           `json:"password"`
		Name       string           `json:"name"`
		SystemRole model.SystemRole `json:"system_role"`
		ManagerID  *uint            `json:"manager_id,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse create user request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	action, ok := createActionsByRole[req.SystemRole]
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid system role"})
	}

	decision, err := h.decide(c.Request().Context(), p, action, authz.Target{NewRole: req.SystemRole})
	if err != nil {
		return respondError(c, log, err)
	}
	if !decision.Allowed {
		return respondDenied(c, decision)
	}

	// Members and QA report to exactly one manager; higher roles to none.
	switch req.SystemRole {
	case model.RoleMember, model.RoleQA:
		if req.ManagerID == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "manager_id is required for members and qa"})
		}
		manager, err := h.store.UserByID(c.Request().Context(), p.CompanyID, *req.ManagerID)
		if err != nil || manager.SystemRole != model.RoleManager {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "manager_id must reference a manager in your company"})
		}
	default:
		if req.ManagerID != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "only members and qa report to a manager"})
		}
	}

	if _, err := h.store.UserByEmail(c.Request().Context(), req.Email); err == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	companyID := p.CompanyID
	user := &model.User{
		Email:      req.Email,
		Password:   string(hashed),
		Name:       req.Name,
		SystemRole: req.SystemRole,
		CompanyID:  &companyID,
		ManagerID:  req.ManagerID,
	}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateUser(c.Request().Context(), user); err != nil {
		return respondError(c, log, err)
	}

	prometheus.UserOperationCounter.WithLabelValues("create").Inc()
	h.audit.Record(c.Request().Context(), audit.Entry{
		CompanyID:    p.CompanyID,
		Action:       "user.create",
		EntityType:   "user",
		EntityID:     user.ID,
		NewValue:     string(user.SystemRole),
		ActingUserID: p.UserID,
	})

	log.Info("User created",
		zap.Uint("user_id", user.ID),
		zap.String("system_role", string(user.SystemRole)))

	return c.JSON(http.StatusCreated, user)
}

// ListUsers returns the users visible to the caller.
func (h *Handler) ListUsers(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	visible, err := h.resolver.VisibleUsers(c.Request().Context(), p)
	if err != nil {
		return respondError(c, log, err)
	}

	users, err := h.store.UsersByCompany(c.Request().Context(), p.CompanyID)
	if err != nil {
		return respondError(c, log, err)
	}

	filtered := make([]model.User, 0, len(users))
	for _, user := range users {
		if visible[user.ID] {
			filtered = append(filtered, user)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"users": filtered})
}

// GetUser returns one visible user. An existing but invisible user yields
// the same response as a nonexistent one.
func (h *Handler) GetUser(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	visible, err := h.resolver.VisibleUsers(c.Request().Context(), p)
	if err != nil {
		return respondError(c, log, err)
	}
	if !visible[uint(userID)] {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	user, err := h.store.UserByID(c.Request().Context(), p.CompanyID, uint(userID))
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser soft-deletes a user; references to them survive.
func (h *Handler) DeleteUser(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user ID"})
	}

	target, err := h.store.UserByID(c.Request().Context(), p.CompanyID, uint(userID))
	if err != nil {
		return respondError(c, log, err)
	}

	decision, err := h.decide(c.Request().Context(), p, authz.ActionDeleteUser, authz.Target{User: target})
	if err != nil {
		return respondError(c, log, err)
	}
	if !decision.Allowed {
		return respondDenied(c, decision)
	}

	if err := h.store.SoftDeleteUser(c.Request().Context(), p.CompanyID, target.ID); err != nil {
		return respondError(c, log, err)
	}

	prometheus.UserOperationCounter.WithLabelValues("delete").Inc()
	h.audit.Record(c.Request().Context(), audit.Entry{
		CompanyID:    p.CompanyID,
		Action:       "user.delete",
		EntityType:   "user",
		EntityID:     target.ID,
		OldValue:     string(target.SystemRole),
		ActingUserID: p.UserID,
	})

	log.Info("User deleted", zap.Uint("user_id", target.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

// TransferSuperAdmin moves the SuperAdmin designation to another user in
// the caller's company. The demotion and promotion commit atomically so
// the company never holds zero or two SuperAdmins.
func (h *Handler) TransferSuperAdmin(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)

	var req struct {
		ToUserID uint `json:"to_user_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.ToUserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to_user_id is required"})
	}

	target, err := h.store.UserByID(c.Request().Context(), p.CompanyID, req.ToUserID)
	if err != nil {
		return respondError(c, log, err)
	}

	decision, err := h.decide(c.Request().Context(), p, authz.ActionTransferSuperAdmin, authz.Target{User: target})
	if err != nil {
		return respondError(c, log, err)
	}
	if !decision.Allowed {
		return respondDenied(c, decision)
	}

	if err := h.store.TransferSuperAdmin(c.Request().Context(), p.CompanyID, p.UserID, target.ID); err != nil {
		return respondError(c, log, err)
	}

	prometheus.UserOperationCounter.WithLabelValues("superadmin_transfer").Inc()
	h.audit.Record(c.Request().Context(), audit.Entry{
		CompanyID:    p.CompanyID,
		Action:       "user.superadmin_transfer",
		EntityType:   "user",
		EntityID:     target.ID,
		OldValue:     strconv.FormatUint(uint64(p.UserID), 10),
		NewValue:     strconv.FormatUint(uint64(target.ID), 10),
		ActingUserID: p.UserID,
	})

	log.Info("SuperAdmin designation transferred",
		zap.Uint("from_user_id", p.UserID),
		zap.Uint("to_user_id", target.ID))

	return c.JSON(http.StatusOK, echo.Map{"message": "superadmin transferred"})
}
