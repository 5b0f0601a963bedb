package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: both claims must be
// present, since presence proves the middleware ran and the token carried a
// usable identity.
func ctxClaims(c echo.Context) (email, role string, err error) {
	email, _ = c.Get("email").(string)
	if email == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	role, _ = c.Get("role").(string)
	if role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "token missing role")
	}

	return email, role, nil
}
