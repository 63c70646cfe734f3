package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/njprem/travelswipe/internal/media"
	"github.com/njprem/travelswipe/internal/service"
	"github.com/njprem/travelswipe/internal/util"
)

type PackageHandler struct {
	catalog *service.CatalogService
}

func RegisterPackages(e *echo.Echo, auth *service.AuthService, catalog *service.CatalogService) {
	h := &PackageHandler{catalog: catalog}

	g := e.Group("/api/v1/packages")
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("/:id/image", h.uploadImage, RequireAuth(auth))
}

func (h *PackageHandler) list(c echo.Context) error {
	items, err := h.catalog.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "unable to load packages")
	}
	return c.JSON(http.StatusOK, util.Envelope{"items": items, "count": len(items)})
}

func (h *PackageHandler) get(c echo.Context) error {
	pkg, err := h.catalog.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err, "unable to load package")
	}
	return c.JSON(http.StatusOK, util.Envelope{"package": pkg})
}

func (h *PackageHandler) uploadImage(c echo.Context) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("image file is required"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("unable to read image"))
	}
	defer file.Close()

	pkg, err := h.catalog.UploadImage(c.Request().Context(), c.Param("id"), media.Upload{
		Reader:      file,
		Size:        fileHeader.Size,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
	})
	if err != nil {
		if errors.Is(err, service.ErrImageStorageDisabled) {
			return c.JSON(http.StatusServiceUnavailable, util.Error(err.Error()))
		}
		return respondError(c, err, "could not store image")
	}
	return c.JSON(http.StatusOK, util.Envelope{"package": pkg})
}
