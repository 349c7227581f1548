package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linkmarket/pricing-service/internal/pricing"
)

// QuoteRequest is the request body for computing a quote.
type QuoteRequest struct {
	WebsiteID    int64  `json:"websiteId" binding:"required,min=1"`
	OfferingType string `json:"offeringType" binding:"omitempty,oneof=guest_post link_insertion homepage_link niche_edit"`
	Strategy     string `json:"strategy" binding:"omitempty,oneof=min max manual"`
	Quantity     int    `json:"quantity" binding:"omitempty,min=1"`
	Niche        string `json:"niche"`
	WordCount    int    `json:"wordCount" binding:"omitempty,min=0"`
}

// QuoteResponse wraps the computed quote.
type QuoteResponse struct {
	Quote *pricing.Quote `json:"quote"`
}

// ComputeQuote computes a quote for a website
// POST /internal/quotes
func ComputeQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quoteReq := &pricing.QuoteRequest{
		WebsiteID:    req.WebsiteID,
		OfferingType: pricing.OfferingType(req.OfferingType),
		Strategy:     pricing.Strategy(req.Strategy),
	}
	if req.Quantity > 0 || req.Niche != "" || req.WordCount > 0 {
		quoteReq.Order = &pricing.OrderContext{
			Quantity:  req.Quantity,
			Niche:     req.Niche,
			WordCount: req.WordCount,
		}
	}

	quote, err := calculator.Quote(c.Request.Context(), quoteReq)
	if err != nil {
		var invalid pricing.ErrInvalidRequest
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute quote"})
		return
	}

	c.JSON(http.StatusOK, QuoteResponse{Quote: quote})
}
