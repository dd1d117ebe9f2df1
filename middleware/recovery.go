package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/Aashish23092/id-document-scanner/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a 500 ErrorResponse. Panics inside
// backend calls are already contained by the scan service; this catches
// the rest of the request path.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error(c.Request.Context(), "handler panic",
				"panic", fmt.Sprint(r),
				"method", c.Request.Method,
				"path", c.FullPath(),
				"stack", string(debug.Stack()),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "internal_error",
				Message: "Internal server error",
				Code:    http.StatusInternalServerError,
			})
		}()

		c.Next()
	}
}
