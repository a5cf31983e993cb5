package handlers

import (
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/apperrors"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/models"
	"github.com/labstack/echo/v4"
)

// principal returns the authenticated claims, or nil for anonymous requests
// that passed through the optional auth middleware.
func principal(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get("user").(*models.JwtCustomClaims)
	return claims
}

// engineError translates an engine error kind to an echo HTTP error.
func engineError(err error) *echo.HTTPError {
	status := apperrors.HTTPStatus(err)
	if status == 500 {
		// Do not leak storage internals to clients.
		return echo.NewHTTPError(status, "Internal server error")
	}
	return echo.NewHTTPError(status, err.Error())
}
