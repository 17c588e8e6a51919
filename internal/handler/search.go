package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/crazyskateface/workbrew-backend/internal/models"

	"github.com/gin-gonic/gin"
)

// DefaultRadiusKm is used when a nearby query omits radius.
const DefaultRadiusKm = 5.0

// SearchHandler handles proximity search requests
type SearchHandler struct {
	service NearbySearcher
}

// NearbySearcher finds places around a point.
type NearbySearcher interface {
	FindNearby(ctx context.Context, lat, lng, radiusKm float64) ([]models.Place, error)
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(svc NearbySearcher) *SearchHandler {
	return &SearchHandler{service: svc}
}

// Nearby handles GET /places/nearby requests
//
//	@Summary	Find places near a point
//	@Tags		places
//	@Produce	json
//	@Param		lat		query		number	true	"Latitude"
//	@Param		lng		query		number	true	"Longitude"
//	@Param		radius	query		number	false	"Radius in km"	default(5)
//	@Success	200		{array}		models.Place
//	@Failure	400		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/places/nearby [get]
func (h *SearchHandler) Nearby(c *gin.Context) {
	latStr := c.Query("lat")
	lngStr := c.Query("lng")

	if latStr == "" || lngStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameters 'lat' and 'lng'"})
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid latitude format"})
		return
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid longitude format"})
		return
	}

	radius := DefaultRadiusKm
	if radiusStr := c.Query("radius"); radiusStr != "" {
		radius, err = strconv.ParseFloat(radiusStr, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius format"})
			return
		}
	}

	places, err := h.service.FindNearby(c.Request.Context(), lat, lng, radius)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, places)
}
