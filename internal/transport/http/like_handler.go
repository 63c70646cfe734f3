package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/service"
	"github.com/njprem/travelswipe/internal/util"
)

type LikeHandler struct {
	likes   *service.LikeService
	catalog *service.CatalogService
}

func RegisterLikes(e *echo.Echo, auth *service.AuthService, likes *service.LikeService, catalog *service.CatalogService) {
	h := &LikeHandler{likes: likes, catalog: catalog}

	g := e.Group("/api/v1/likes", RequireAuth(auth))
	g.GET("", h.listLikes)
	g.POST("", h.like)
	g.GET("/count", h.count)
	g.GET("/local", h.localLikes)
	g.DELETE("/local", h.clearLocal)
	g.GET("/packages/:package_id", h.isLiked)
	g.DELETE("/packages/:package_id", h.unlike)
	g.POST("/packages/:package_id/toggle", h.toggle)

	e.GET("/api/v1/system/remote-status", h.remoteStatus)
}

func (h *LikeHandler) like(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}

	var req LikeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	pkg, err := h.resolvePackage(c, req)
	if err != nil {
		return respondError(c, err, "could not resolve package")
	}

	record, err := h.likes.Like(c.Request().Context(), user.ID, pkg)
	if err != nil {
		return respondError(c, err, "could not save like")
	}
	return c.JSON(http.StatusCreated, util.Envelope{
		"like":    toLikeResponse(record),
		"message": "Package added to Likes",
	})
}

func (h *LikeHandler) unlike(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	packageID := strings.TrimSpace(c.Param("package_id"))
	if err := h.likes.Unlike(c.Request().Context(), user.ID, packageID); err != nil {
		return respondError(c, err, "could not remove like")
	}
	return c.JSON(http.StatusOK, util.Envelope{
		"package_id": packageID,
		"message":    "Package removed from Likes",
	})
}

func (h *LikeHandler) toggle(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	pkg, err := h.resolvePackage(c, LikeRequest{PackageID: c.Param("package_id")})
	if err != nil {
		return respondError(c, err, "could not resolve package")
	}
	liked, err := h.likes.Toggle(c.Request().Context(), user.ID, pkg)
	if err != nil {
		return respondError(c, err, "could not update likes")
	}
	return c.JSON(http.StatusOK, util.Envelope{"package_id": pkg.ID, "liked": liked})
}

func (h *LikeHandler) listLikes(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	ctx := c.Request().Context()
	set, err := h.likes.LikedSet(ctx, user.ID)
	if err != nil {
		return respondError(c, err, "unable to load likes")
	}
	if err := h.catalog.Hydrate(ctx, set); err != nil {
		c.Logger().Warnf("hydrate liked set: %v", err)
	}
	return c.JSON(http.StatusOK, set)
}

func (h *LikeHandler) count(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	n, err := h.likes.LikedCount(c.Request().Context(), user.ID)
	if err != nil {
		return respondError(c, err, "unable to count likes")
	}
	return c.JSON(http.StatusOK, util.Envelope{"user_id": user.ID, "liked_count": n})
}

func (h *LikeHandler) isLiked(c echo.Context) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	packageID := strings.TrimSpace(c.Param("package_id"))
	liked, err := h.likes.IsLiked(c.Request().Context(), user.ID, packageID)
	if err != nil {
		return respondError(c, err, "unable to check like")
	}
	return c.JSON(http.StatusOK, util.Envelope{"package_id": packageID, "liked": liked})
}

func (h *LikeHandler) localLikes(c echo.Context) error {
	items, err := h.likes.LocalLikes(c.Request().Context())
	if err != nil {
		return respondError(c, err, "unable to load likes")
	}
	return c.JSON(http.StatusOK, util.Envelope{"items": items, "count": len(items)})
}

func (h *LikeHandler) clearLocal(c echo.Context) error {
	if err := h.likes.ClearLocal(c.Request().Context()); err != nil {
		return respondError(c, err, "could not clear likes")
	}
	return c.JSON(http.StatusOK, util.Envelope{"message": "Likes cleared"})
}

func (h *LikeHandler) remoteStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.likes.RemoteStatus(c.Request().Context()))
}

// resolvePackage prefers the package sent by the client, which is what the
// card showed, and falls back to the catalog for a bare id.
func (h *LikeHandler) resolvePackage(c echo.Context, req LikeRequest) (domain.Package, error) {
	if req.Package != nil && req.Package.Valid() {
		return *req.Package, nil
	}
	id := strings.TrimSpace(req.PackageID)
	if id == "" {
		return domain.Package{}, domain.ValidationError("no package id provided")
	}
	pkg, err := h.catalog.Get(c.Request().Context(), id)
	if err != nil {
		return domain.Package{}, err
	}
	return *pkg, nil
}
