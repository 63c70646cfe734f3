package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/njprem/travelswipe/internal/service"
	"github.com/njprem/travelswipe/internal/util"
)

type ProfileHandler struct {
	profile *service.ProfileService
}

func RegisterProfile(e *echo.Echo, auth *service.AuthService, profile *service.ProfileService) {
	h := &ProfileHandler{profile: profile}

	g := e.Group("/api/v1/profile", RequireAuth(auth))
	g.GET("", h.get)
	g.POST("/welcome-seen", h.markWelcomeSeen)

	// The welcome flag is read before anyone signs in.
	e.GET("/api/v1/profile/welcome-seen", h.welcomeSeen)
}

func (h *ProfileHandler) get(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	profile, err := h.profile.Get(c.Request().Context(), user.ID)
	if err != nil {
		return respondError(c, err, "unable to load profile")
	}
	return c.JSON(http.StatusOK, util.Envelope{"profile": profile})
}

func (h *ProfileHandler) welcomeSeen(c echo.Context) error {
	seen, err := h.profile.WelcomeSeen(c.Request().Context())
	if err != nil {
		return respondError(c, err, "unable to read welcome flag")
	}
	return c.JSON(http.StatusOK, util.Envelope{"welcome_seen": seen})
}

func (h *ProfileHandler) markWelcomeSeen(c echo.Context) error {
	if err := h.profile.MarkWelcomeSeen(c.Request().Context()); err != nil {
		return respondError(c, err, "unable to update welcome flag")
	}
	return c.JSON(http.StatusOK, util.Envelope{"welcome_seen": true})
}
