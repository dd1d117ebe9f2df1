package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Aashish23092/id-document-scanner/config"
	"github.com/Aashish23092/id-document-scanner/dto"
	"github.com/Aashish23092/id-document-scanner/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates an HS256 bearer token. The token subject is
// stored as the caller identity.
func AuthMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(SubjectKey, claims.Subject)
		ctx := context.WithValue(c.Request.Context(), logger.SubjectKey, claims.Subject)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetSubject gets the authenticated caller from context
func GetSubject(c *gin.Context) string {
	return c.GetString(SubjectKey)
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error:   "unauthorized",
		Message: message,
		Code:    http.StatusUnauthorized,
	})
}
