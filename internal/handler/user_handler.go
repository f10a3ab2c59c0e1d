package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/Abhirsi/HawalaSend-backend/internal/errors"
	appmiddleware "github.com/Abhirsi/HawalaSend-backend/internal/middleware"
)

// UserHandler serves session-bound user endpoints.
type UserHandler struct{}

// NewUserHandler creates a handler layer.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me godoc
// @Summary Get the authenticated user's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.PublicUser
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, ok := appmiddleware.CurrentUser(c)
	if !ok {
		return writeError(c, apperrors.ErrMissingToken)
	}
	return c.JSON(http.StatusOK, user.Public())
}
