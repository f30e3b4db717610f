package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
)

type markPaidRequest struct {
	DealIDs []string `json:"deal_ids"`
}

func (s *Server) MarkPayoutsPaid(c *gin.Context) {
	var req markPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.payoutSvc.MarkPaid(c.Request.Context(), req.DealIDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPayoutSummary(c *gin.Context) {
	resp, err := s.payoutSvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPayouts(c *gin.Context) {
	var query struct {
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	status := dealdomain.PayoutStatus(strings.ToUpper(strings.TrimSpace(query.Status)))
	resp, err := s.payoutSvc.List(c.Request.Context(), status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
