package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerToken returns the credential from an "Authorization: Bearer <token>"
// header, or "" when none is supplied.
func BearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
