package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"insproduce-backend/internal/logger"
	"insproduce-backend/internal/models"
	"insproduce-backend/internal/services"
	"insproduce-backend/internal/storage"
)

type FilesHandler struct {
	files *services.StorageService
	log   *logger.Logger
}

func NewFilesHandler(files *services.StorageService, log *logger.Logger) *FilesHandler {
	return &FilesHandler{files: files, log: log}
}

// Serve returns a handler streaming objects of one root from the *path param.
func (h *FilesHandler) Serve(root string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimPrefix(c.Param("path"), "/")
		if err := storage.ValidateName(name); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid path"})
			return
		}

		rc, err := h.files.Open(c.Request.Context(), root, name)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "file not found"})
				return
			}
			h.log.Error("failed to open artifact", "root", root, "name", name, "error", err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal_error", Message: "failed to read file"})
			return
		}
		defer rc.Close()

		c.Header("Content-Type", storage.ContentType(name))
		c.Header("Cache-Control", "private, max-age=300")
		c.Status(http.StatusOK)
		if _, err := io.Copy(c.Writer, rc); err != nil {
			h.log.Warn("artifact stream interrupted", "root", root, "name", name, "error", err)
		}
	}
}
