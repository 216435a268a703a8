package http

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/remindly/core/internal/domain/entities"
	"github.com/remindly/core/internal/ports"
)

// UploadsHandler serves stored avatars and item images under /uploads
type UploadsHandler struct {
	blobs ports.BlobStore
}

// NewUploadsHandler creates a new uploads handler
func NewUploadsHandler(blobs ports.BlobStore) *UploadsHandler {
	return &UploadsHandler{blobs: blobs}
}

// Serve godoc
// @Summary Download a stored file
// @Tags uploads
// @Produce octet-stream
// @Param path path string true "Namespace and file name, e.g. avatars/1.png"
// @Success 200 {file} binary
// @Failure 404 {object} ports.ErrorResponse
// @Router /uploads/{path} [get]
func (h *UploadsHandler) Serve(c echo.Context) error {
	relPath := ports.BlobPublicPrefix + "/" + strings.TrimPrefix(c.Param("*"), "/")
	if _, _, ok := ports.SplitBlobPath(relPath); !ok {
		return MapError(entities.ErrBlobNotFound)
	}

	rc, err := h.blobs.Open(c.Request().Context(), relPath)
	if err != nil {
		return MapError(err)
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(relPath))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")
	return c.Stream(http.StatusOK, contentType, rc)
}
