package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	performancedomain "github.com/smallbiznis/incentra/internal/performance/domain"
)

func (s *Server) GetPerformanceSummary(c *gin.Context) {
	resp, err := s.performanceSvc.Summary(c.Request.Context(), c.Param("owner_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetLeaderboard(c *gin.Context) {
	var query struct {
		Period string `form:"period"`
		Limit  string `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	limit := 0
	if raw := strings.TrimSpace(query.Limit); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
		limit = parsed
	}

	period := performancedomain.Period(strings.ToUpper(strings.TrimSpace(query.Period)))
	resp, err := s.performanceSvc.Leaderboard(c.Request.Context(), period, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
