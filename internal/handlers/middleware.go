package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ctxUserID is the gin context key holding the authenticated user id.
const ctxUserID = "userId"

// queryToken carries the bearer token on /ws, where browsers cannot set headers.
const queryToken = "token"

// userIdMiddleware requires a valid bearer token on every /api/v1 route.
func (h *Handler) userIdMiddleware(c *gin.Context) {
	h.authenticate(c, c.GetHeader("Authorization"))
}

// wsUserIdMiddleware accepts the Authorization header or ?token=.
func (h *Handler) wsUserIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if tok := c.Query(queryToken); tok != "" {
			header = "Bearer " + tok
		}
	}
	h.authenticate(c, header)
}

func (h *Handler) authenticate(c *gin.Context, header string) {
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	userId, err := h.services.ParseToken(parts[1])
	if err != nil {
		if h.log != nil {
			h.log.Debugw("auth_token_rejected", "err", err, "path", c.FullPath())
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(ctxUserID, userId)
	c.Next()
}
