package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linkmarket/pricing-service/internal/pricing"
)

// RecomputeRequest is the request body for a bulk recompute sweep.
// Empty WebsiteIDs means all websites.
type RecomputeRequest struct {
	WebsiteIDs  []int64 `json:"websiteIds"`
	Concurrency int     `json:"concurrency" binding:"omitempty,min=1,max=32"`
}

// RecomputeResponse reports the sweep outcome.
type RecomputeResponse struct {
	Updated int                  `json:"updated"`
	Errors  []pricing.SweepError `json:"errors"`
}

// RecomputeDerivedPrices refreshes derived prices in bulk
// POST /internal/admin/recompute
func RecomputeDerivedPrices(c *gin.Context) {
	var req RecomputeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := calculator.RecomputeAll(c.Request.Context(), req.WebsiteIDs, req.Concurrency)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run recompute sweep"})
		return
	}

	c.JSON(http.StatusOK, RecomputeResponse{Updated: result.Updated, Errors: result.Errors})
}
