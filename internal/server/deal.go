package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	dealdomain "github.com/smallbiznis/incentra/internal/deal/domain"
)

type createDealRequest struct {
	Title        string  `json:"title"`
	CustomerName string  `json:"customer_name"`
	OwnerID      string  `json:"owner_id"`
	Amount       float64 `json:"amount"`
	DiscountRate float64 `json:"discount_rate"`
	RiskLevel    *string `json:"risk_level"`
	DealDate     *string `json:"deal_date"`
}

func (s *Server) CreateDeal(c *gin.Context) {
	var req createDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	create := dealdomain.CreateRequest{
		Title:        strings.TrimSpace(req.Title),
		CustomerName: strings.TrimSpace(req.CustomerName),
		OwnerID:      strings.TrimSpace(req.OwnerID),
		Amount:       req.Amount,
		DiscountRate: req.DiscountRate,
	}
	if req.RiskLevel != nil {
		level := dealdomain.RiskLevel(strings.ToUpper(strings.TrimSpace(*req.RiskLevel)))
		create.RiskLevel = &level
	}
	if req.DealDate != nil && strings.TrimSpace(*req.DealDate) != "" {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.DealDate))
		if err != nil {
			parsed, err = time.Parse("2006-01-02", strings.TrimSpace(*req.DealDate))
		}
		if err != nil {
			AbortWithError(c, newValidationError("deal_date", "invalid_deal_date", "invalid deal date"))
			return
		}
		create.DealDate = &parsed
	}

	resp, err := s.dealSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDeals(c *gin.Context) {
	var query struct {
		OwnerID      string `form:"owner_id"`
		Status       string `form:"status"`
		PayoutStatus string `form:"payout_status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.dealSvc.List(c.Request.Context(), dealdomain.ListRequest{
		OwnerID:      strings.TrimSpace(query.OwnerID),
		Status:       dealdomain.Status(strings.TrimSpace(query.Status)),
		PayoutStatus: dealdomain.PayoutStatus(strings.ToUpper(strings.TrimSpace(query.PayoutStatus))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDeal(c *gin.Context) {
	resp, err := s.dealSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SubmitDeal(c *gin.Context) {
	resp, err := s.dealSvc.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type reviewDealRequest struct {
	Comment string `json:"comment"`
	Reason  string `json:"reason"`
}

func (s *Server) ApproveDeal(c *gin.Context) {
	var req reviewDealRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.dealSvc.Approve(c.Request.Context(), c.Param("id"), req.Comment)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RejectDeal(c *gin.Context) {
	var req reviewDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.dealSvc.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
