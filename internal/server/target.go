package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	targetdomain "github.com/smallbiznis/incentra/internal/target/domain"
)

type setTargetRequest struct {
	OwnerID string  `json:"owner_id"`
	Amount  float64 `json:"amount"`
}

func (s *Server) SetTarget(c *gin.Context) {
	var req setTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.targetSvc.Set(c.Request.Context(), targetdomain.SetRequest{
		OwnerID: strings.TrimSpace(req.OwnerID),
		Amount:  req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTarget(c *gin.Context) {
	resp, err := s.targetSvc.Get(c.Request.Context(), c.Param("owner_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTargets(c *gin.Context) {
	resp, err := s.targetSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteTarget(c *gin.Context) {
	if err := s.targetSvc.Delete(c.Request.Context(), c.Param("owner_id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
