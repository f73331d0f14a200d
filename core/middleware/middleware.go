package middleware

import (
	"strings"

	"github.com/Einheit-Zenkai/meet-riders-sub003/core/config"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/controller"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/errors"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/logger"
	"github.com/Einheit-Zenkai/meet-riders-sub003/core/utils"

	"github.com/labstack/echo/v4"
)

type Middleware struct {
	cfg *config.Config
}

func NewMiddleware(cfg *config.Config) *Middleware {
	return &Middleware{cfg: cfg}
}

// AuthMiddleware validates the Bearer token and stores the claims in the
// request context under "token_data".
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return controller.NewErrorResponse(401, errors.ErrMissingAuthorizationHeader, "Missing Authorization header")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return controller.NewErrorResponse(401, errors.ErrInvalidTokenFormat, "Invalid Authorization header format")
			}

			claims, err := utils.ParseToken(parts[1], m.cfg.JWT.Secret)
			if err != nil {
				logger.Warn("Middleware:AuthMiddleware:ParseToken", "error", err)
				return controller.NewErrorResponse(401, errors.ErrUnauthorized, "Invalid or expired token")
			}

			c.Set("token_data", claims)
			return next(c)
		}
	}
}
