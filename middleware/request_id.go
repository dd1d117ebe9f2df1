package middleware

import (
	"context"
	"regexp"

	"github.com/Aashish23092/id-document-scanner/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Keys set on the gin context by the middleware chain and handlers.
const (
	RequestIDKey  = "request_id"
	SubjectKey    = "subject"
	ProvenanceKey = "provenance"
)

// Client-supplied ids end up in every log line of the request.
var clientRequestIDRe = regexp.MustCompile(`^[A-Za-z0-9._:\-]{1,64}$`)

// RequestID reuses a well-formed X-Request-ID from the client, otherwise
// assigns a fresh UUID. The id is echoed back and attached to the request
// context so pkg/logger picks it up.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if !clientRequestIDRe.MatchString(requestID) {
			requestID = uuid.NewString()
		}

		c.Header(RequestIDHeader, requestID)
		c.Set(RequestIDKey, requestID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey, requestID))

		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
