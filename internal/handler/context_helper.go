package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-auditor/internal/middleware"
	"github.com/noah-isme/lms-auditor/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// subject names the operator behind the request for log lines.
func subject(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return "anonymous"
}
