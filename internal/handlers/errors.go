package handlers

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"insproduce-backend/internal/apierr"
	"insproduce-backend/internal/logger"
	"insproduce-backend/internal/models"
)

// respondError writes the short client message for err. Causes of server
// errors only go to the log.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	apiErr := apierr.As(err)
	if apiErr.Status >= http.StatusInternalServerError {
		log.Error("request error",
			"path", c.FullPath(),
			"code", apiErr.Code,
			"inspection_id", c.Param("id"),
			"error", err,
		)
		_ = c.Error(err)
	}
	c.JSON(apiErr.Status, models.ErrorResponse{Error: apiErr.Code, Message: apiErr.Message})
}

var numericID = regexp.MustCompile(`^\d+$`)

// parseID accepts only a plain positive integer path parameter.
func parseID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	if !numericID.MatchString(raw) {
		return 0, apierr.Validation("invalid id %q", raw)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.Validation("invalid id %q", raw)
	}
	return id, nil
}
