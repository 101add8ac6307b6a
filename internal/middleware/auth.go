package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/authz"
	"github.com/Ayazhaider7786/WorkFlow-sub001/internal/model"
	"github.com/Ayazhaider7786/WorkFlow-sub001/pkg/jwtutil"
	"github.com/Ayazhaider7786/WorkFlow-sub001/pkg/logger"
)

const principalKey = "principal"

// JWTAuthMiddleware validates the bearer token and resolves it into the
// request's principal. A request without a valid, company-bound principal
// never reaches a handler.
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization header"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization header format"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			principal := authz.Principal{
				UserID: claims.UserID,
				Role:   model.SystemRole(claims.SystemRole),
			}
			if claims.CompanyID != nil {
				principal.CompanyID = *claims.CompanyID
			}
			if !principal.Authenticated() {
				log.Warn("Token does not resolve to a company-bound principal",
					zap.Uint("user_id", claims.UserID))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set(principalKey, principal)
			log.Debug("JWT token validated successfully",
				zap.Uint("user_id", principal.UserID),
				zap.String("system_role", string(principal.Role)))

			return next(c)
		}
	}
}

// PrincipalFromEcho returns the principal resolved by JWTAuthMiddleware.
// The zero principal is returned when authentication did not run; it
// carries no privilege.
func PrincipalFromEcho(c echo.Context) authz.Principal {
	principal, ok := c.Get(principalKey).(authz.Principal)
	if !ok {
		return authz.Principal{}
	}
	return principal
}
