package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ruledomain "github.com/smallbiznis/incentra/internal/rule/domain"
)

type saveRuleRequest struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Metric    string  `json:"metric"`
	Operator  string  `json:"operator"`
	Threshold float64 `json:"threshold"`
	Action    string  `json:"action"`
	Active    *bool   `json:"active"`
}

func (s *Server) ListRules(c *gin.Context) {
	resp, err := s.ruleSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SaveRule(c *gin.Context) {
	var req saveRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ruleSvc.Save(c.Request.Context(), ruledomain.SaveRequest{
		ID:        strings.TrimSpace(req.ID),
		Name:      strings.TrimSpace(req.Name),
		Metric:    ruledomain.Metric(strings.ToUpper(strings.TrimSpace(req.Metric))),
		Operator:  ruledomain.Operator(strings.ToUpper(strings.TrimSpace(req.Operator))),
		Threshold: req.Threshold,
		Action:    ruledomain.Action(strings.ToUpper(strings.TrimSpace(req.Action))),
		Active:    req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteRule(c *gin.Context) {
	if err := s.ruleSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
