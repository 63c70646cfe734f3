package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/service"
	"github.com/njprem/travelswipe/internal/util"
)

const (
	contextUserKey  = "auth.user"
	contextTokenKey = "auth.token"
)

func RequireAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if strings.TrimSpace(authHeader) == "" {
				return c.JSON(http.StatusUnauthorized, util.Error("missing authorization header"))
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return c.JSON(http.StatusUnauthorized, util.Error("invalid authorization header"))
			}
			token := strings.TrimSpace(parts[1])
			user, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrInvalidToken) {
					return c.JSON(http.StatusUnauthorized, util.Error(err.Error()))
				}
				return c.JSON(http.StatusInternalServerError, util.Error("unable to verify session"))
			}
			c.Set(contextUserKey, user)
			c.Set(contextTokenKey, token)
			return next(c)
		}
	}
}

func CurrentUser(c echo.Context) (*domain.SessionUser, bool) {
	user, ok := c.Get(contextUserKey).(*domain.SessionUser)
	return user, ok && user != nil
}

// respondError maps service failures onto status codes.
func respondError(c echo.Context, err error, fallback string) error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		switch derr.Kind {
		case domain.KindValidation:
			return c.JSON(http.StatusBadRequest, util.ErrorWithKind(derr.Message, derr.Kind.String()))
		case domain.KindRemoteUnavailable, domain.KindTransport:
			return c.JSON(http.StatusServiceUnavailable, util.ErrorWithKind(fallback, derr.Kind.String()))
		default:
			return c.JSON(http.StatusInternalServerError, util.ErrorWithKind(fallback, derr.Kind.String()))
		}
	}
	switch {
	case errors.Is(err, domain.ErrPackageNotFound):
		return c.JSON(http.StatusNotFound, util.Error("package not found"))
	default:
		return c.JSON(http.StatusInternalServerError, util.Error(fallback))
	}
}
