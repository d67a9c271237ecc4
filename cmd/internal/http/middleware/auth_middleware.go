package middleware

import (
	"context"
	"linkednotes/cmd/internal/domain/entity"
	"linkednotes/cmd/internal/utils"
	"linkednotes/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, apierror.ErrorResponse)
}

type AuthMiddlewareConfig struct {
	Auth Authenticator

	// Optional lets requests without any token through anonymously.
	// A token that is present must still be valid.
	Optional bool
}

// NewAuthMiddleware creates the handler with dependencies injected
func NewAuthMiddleware(cfg *AuthMiddlewareConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := utils.TokenFromRequest(c)
			if token == "" {
				if cfg.Optional {
					return next(c)
				}
				return c.JSON(apierror.AuthRequiredError.Code(), apierror.AuthRequiredError)
			}

			user, apierr := cfg.Auth.Authenticate(c.Request().Context(), token)
			if apierr != nil {
				return c.JSON(apierr.Code(), apierr)
			}

			c.Set(utils.ContextUserKey, user)
			c.Set(utils.ContextTokenKey, token)
			return next(c)
		}
	}
}
