package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/incentra/internal/auditcontext"
	"github.com/smallbiznis/incentra/internal/orgcontext"
)

const (
	headerOrgID     = "X-Org-ID"
	headerActorType = "X-Actor-Type"
	headerActorID   = "X-Actor-ID"
)

// RequestContextMiddleware lifts the tenancy and actor headers into the
// request context so services do not touch HTTP concerns.
func RequestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if raw := strings.TrimSpace(c.GetHeader(headerOrgID)); raw != "" {
			if orgID, err := snowflake.ParseString(raw); err == nil && orgID != 0 {
				ctx = orgcontext.WithOrgID(ctx, int64(orgID))
			}
		}

		actorType := strings.TrimSpace(c.GetHeader(headerActorType))
		actorID := strings.TrimSpace(c.GetHeader(headerActorID))
		if actorType != "" || actorID != "" {
			if actorType == "" {
				actorType = "user"
			}
			ctx = auditcontext.WithActor(ctx, actorType, actorID)
		}

		ctx = auditcontext.WithIPAddress(ctx, c.ClientIP())
		ctx = auditcontext.WithUserAgent(ctx, c.Request.UserAgent())

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
