package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ajharbinger/stockdd-timeline/internal/errors"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
)

// respondError writes err with the status its code maps to
func respondError(c *gin.Context, log logger.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	message := apperrors.Message(err)
	if apperrors.Code(err) == "" {
		message = "Internal server error"
	}

	if status >= http.StatusInternalServerError {
		log.Error("Request failed", err, "method", c.Request.Method, "path", c.FullPath())
	}
	c.JSON(status, gin.H{"error": message})
}

// queryLimit reads an integer query parameter bounded to [lo, hi]
func queryLimit(c *gin.Context, name string, def, lo, hi int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, apperrors.InvalidInput(name+" must be an integer between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi), err)
	}
	return v, nil
}
