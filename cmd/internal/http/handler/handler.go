package handler

import (
	"linkednotes/cmd/internal/utils/apierror"
	"strconv"

	"github.com/labstack/echo/v4"
)

// pathID parses the positive integer path parameter name.
func pathID(c echo.Context, name string) (int64, *apierror.APIError) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.NewInvalidParamTypeError(name, "positive integer")
	}
	return id, nil
}
