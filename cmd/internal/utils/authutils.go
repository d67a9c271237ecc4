package utils

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// HeaderToken is the alternative token header accepted next to Authorization.
const HeaderToken = "X-Token"

// TokenFromRequest extracts the bearer token from `Authorization: Bearer <t>`,
// falling back to the `X-Token` header. Returns "" when neither is present.
func TokenFromRequest(c echo.Context) string {
	header := c.Request().Header
	if token := sanitizeToken(header.Get(echo.HeaderAuthorization)); token != "" {
		return token
	}
	return strings.TrimSpace(header.Get(HeaderToken))
}

func sanitizeToken(token string) string {
	token = strings.TrimSpace(token)
	if len(token) < 7 || !strings.EqualFold(token[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(token[7:])
}
