package utils

import (
	"linkednotes/cmd/internal/domain/entity"
	"linkednotes/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const (
	ContextUserKey  = "user"
	ContextTokenKey = "token"
)

func GetUserFromContext(c echo.Context) (*entity.User, apierror.ErrorResponse) {
	val := c.Get(ContextUserKey)
	if val == nil {
		log.Warnf("route %s attempted to read nil user from context", c.Request().URL)
		return nil, apierror.AuthRequiredError
	}

	user, ok := val.(*entity.User)
	if !ok {
		log.Warnf("expected user type at 'user' context key, got %T", val)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

// GetOptionalUser returns the authenticated user, or nil on routes that
// run without authentication.
func GetOptionalUser(c echo.Context) *entity.User {
	user, _ := c.Get(ContextUserKey).(*entity.User)
	return user
}
