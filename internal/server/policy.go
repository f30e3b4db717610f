package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	policydomain "github.com/smallbiznis/incentra/internal/policy/domain"
)

type policyRequest struct {
	Title          *string  `json:"title"`
	Description    *string  `json:"description"`
	CommissionRate *float64 `json:"commission_rate"`
	MinDealAmount  *float64 `json:"min_deal_amount"`
	MaxDealAmount  *float64 `json:"max_deal_amount"`
	BonusThreshold *float64 `json:"bonus_threshold"`
	BonusAmount    *float64 `json:"bonus_amount"`
	Active         *bool    `json:"active"`
}

func (s *Server) CreatePolicy(c *gin.Context) {
	var req policyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	create := policydomain.CreateRequest{
		MinDealAmount:  req.MinDealAmount,
		MaxDealAmount:  req.MaxDealAmount,
		BonusThreshold: req.BonusThreshold,
		BonusAmount:    req.BonusAmount,
		Active:         req.Active,
	}
	if req.Title != nil {
		create.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		create.Description = strings.TrimSpace(*req.Description)
	}
	if req.CommissionRate != nil {
		create.CommissionRate = *req.CommissionRate
	}

	resp, err := s.policySvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPolicies(c *gin.Context) {
	var query struct {
		Active string `form:"active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	activeOnly := strings.EqualFold(strings.TrimSpace(query.Active), "true")
	resp, err := s.policySvc.List(c.Request.Context(), activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPolicy(c *gin.Context) {
	resp, err := s.policySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePolicy(c *gin.Context) {
	var req policyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.policySvc.Update(c.Request.Context(), c.Param("id"), policydomain.UpdateRequest{
		Title:          req.Title,
		Description:    req.Description,
		CommissionRate: req.CommissionRate,
		MinDealAmount:  req.MinDealAmount,
		MaxDealAmount:  req.MaxDealAmount,
		BonusThreshold: req.BonusThreshold,
		BonusAmount:    req.BonusAmount,
		Active:         req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivatePolicy(c *gin.Context) {
	resp, err := s.policySvc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
