package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/linkmarket/pricing-service/internal/pricing"
)

// ComparisonResponse wraps a price drift comparison.
type ComparisonResponse struct {
	Comparison *pricing.PricingComparison `json:"comparison"`
}

// AttributionResponse wraps a website's cached attribution record.
type AttributionResponse struct {
	Attribution *pricing.DerivedPriceRecord `json:"attribution"`
}

// GetComparison returns the drift between a website's legacy flat price
// and its last derived price
// GET /internal/websites/:websiteId/comparison
func GetComparison(c *gin.Context) {
	websiteID, ok := websiteIDParam(c)
	if !ok {
		return
	}

	cmp, err := recorder.Compare(c.Request.Context(), websiteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compare prices"})
		return
	}

	c.JSON(http.StatusOK, ComparisonResponse{Comparison: cmp})
}

// GetAttribution returns a website's cached attribution record
// GET /internal/websites/:websiteId/attribution
func GetAttribution(c *gin.Context) {
	websiteID, ok := websiteIDParam(c)
	if !ok {
		return
	}

	record, err := recorder.Get(c.Request.Context(), websiteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch attribution"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Website has no derived price yet"})
		return
	}

	c.JSON(http.StatusOK, AttributionResponse{Attribution: record})
}

func websiteIDParam(c *gin.Context) (int64, bool) {
	websiteID, err := strconv.ParseInt(c.Param("websiteId"), 10, 64)
	if err != nil || websiteID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "websiteId must be a positive integer"})
		return 0, false
	}
	return websiteID, true
}
