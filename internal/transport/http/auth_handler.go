package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/njprem/travelswipe/internal/service"
	"github.com/njprem/travelswipe/internal/util"
)

type AuthHandler struct {
	auth    *service.AuthService
	profile *service.ProfileService
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService, profile *service.ProfileService) {
	h := &AuthHandler{auth: auth, profile: profile}

	g := e.Group("/api/v1/auth")
	g.POST("/signup", h.signUp)
	g.POST("/signin", h.signIn)

	protected := g.Group("", RequireAuth(auth))
	protected.GET("/me", h.me)
	protected.POST("/signout", h.signOut)
}

func (h *AuthHandler) signUp(c echo.Context) error {
	var req service.SignUpInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	res, err := h.auth.SignUp(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyUsed) {
			return c.JSON(http.StatusConflict, util.Error(err.Error()))
		}
		return respondError(c, err, "could not create account")
	}
	return c.JSON(http.StatusCreated, toAuthTokenResponse(res))
}

func (h *AuthHandler) signIn(c echo.Context) error {
	var req service.SignInInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	res, err := h.auth.SignIn(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, util.Error(err.Error()))
		}
		return respondError(c, err, "could not sign in")
	}
	return c.JSON(http.StatusOK, toAuthTokenResponse(res))
}

func (h *AuthHandler) me(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	return c.JSON(http.StatusOK, util.Envelope{"user": toAuthUser(*user)})
}

// signOut ends the session and clears the cached identity.
func (h *AuthHandler) signOut(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.auth.SignOut(ctx); err != nil {
		return respondError(c, err, "could not sign out")
	}
	if err := h.profile.Logout(ctx); err != nil {
		return respondError(c, err, "could not sign out")
	}
	return c.JSON(http.StatusOK, util.Envelope{"success": true})
}
