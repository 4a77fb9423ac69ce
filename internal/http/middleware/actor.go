// README: Actor middleware; identifies who performs workflow actions.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ActorHeader = "X-Actor"
	ActorKey    = "actor"
)

// Actor stores the X-Actor header on the context. With required set, requests
// without it are rejected. Authentication happens upstream of this service.
func Actor(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor == "" && required {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + ActorHeader + " header"})
			return
		}
		c.Set(ActorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the actor stored by Actor, or "".
func ActorFrom(c *gin.Context) string {
	return c.GetString(ActorKey)
}
