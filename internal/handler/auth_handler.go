package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/audit"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/pkg/logger"
	"github.com/Ayazhaider7786/WorkFlow-sub001/prometheus"
)

// Register bootstraps a new company with its first user. The founding
// user becomes the company's SuperAdmin; every company holds exactly one.
func (h *Handler) Register(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		CompanyName string `json:"company_name"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		Name        string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse register request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.CompanyName == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "company_name, email and password are required"})
	}

	if _, err := h.store.UserByEmail(c.Request().Context(), req.Email); err == nil {
		prometheus.RecordAuthError("email_taken")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	company := &model.Company{Name: req.CompanyName, Active: true}
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.store.CreateCompany(c.Request().Context(), company); err != nil {
		log.Error("Failed to create company", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create company"})
	}

	user := &model.User{
		Email:      req.Email,
		Password:   string(hashed),
		Name:       req.Name,
		SystemRole: model.RoleSuperAdmin,
		CompanyID:  &company.ID,
	}
	if err := h.store.CreateUser(c.Request().Context(), user); err != nil {
		log.Error("Failed to create founding user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}

	h.audit.Record(c.Request().Context(), audit.Entry{
		CompanyID:    company.ID,
		Action:       "company.register",
		EntityType:   "company",
		EntityID:     company.ID,
		ActingUserID: user.ID,
	})

	token, err := h.jwt.GenerateToken(user.Email, user.ID, user.CompanyID, string(user.SystemRole))
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("Company registered",
		zap.Uint("company_id", company.ID),
		zap.Uint("user_id", user.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"token":   token,
		"company": company,
		"user":    user,
	})
}

// Login authenticates a user and issues a token carrying their company
// and system role.
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	user, err := h.store.UserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := h.jwt.GenerateToken(user.Email, user.ID, user.CompanyID, string(user.SystemRole))
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in",
		zap.Uint("user_id", user.ID),
		zap.String("system_role", string(user.SystemRole)))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user":  user,
	})
}
