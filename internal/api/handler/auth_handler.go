package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/permitology/permit-system/internal/core/domain"
	"github.com/permitology/permit-system/internal/core/ports"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	service ports.AuthService
}

func NewAuthHandler(service ports.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"required,oneof=applicant approver"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string        `json:"token"`
	Actor actorResponse `json:"actor"`
}

// Register handles POST /auth/register — onboarding: credentials are stored
// and the actor's role is assigned in the directory.
//
// @Summary      Register an actor
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Email, password, and role"
// @Success      201   {object}  actorResponse
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	actor, err := h.service.Register(c.Request().Context(), req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toActorResponse(actor))
}

// Login handles POST /auth/login.
//
// @Summary      Log in and obtain a token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Email and password"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	token, actor, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{Token: token, Actor: *toActorResponse(actor)})
}
