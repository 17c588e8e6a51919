package handler

import (
	"net/http"
	"strconv"

	"github.com/crazyskateface/workbrew-backend/internal/geo"

	"github.com/gin-gonic/gin"
)

// GeohashResponse is a cell and its eight neighbors, N first, clockwise.
type GeohashResponse struct {
	Geohash   string   `json:"geohash"`
	Neighbors []string `json:"neighbors"`
}

// GeohashEncoder encodes coordinates into geohash cells.
type GeohashEncoder interface {
	EncodeGeohash(lat, lng float64, precision int) (string, []string, error)
}

// GeohashHandler exposes the geohash codec
type GeohashHandler struct {
	service GeohashEncoder
}

// NewGeohashHandler creates a new geohash handler
func NewGeohashHandler(svc GeohashEncoder) *GeohashHandler {
	return &GeohashHandler{service: svc}
}

// Encode handles GET /geohash requests
//
//	@Summary	Encode a coordinate as a geohash
//	@Tags		geohash
//	@Produce	json
//	@Param		lat			query		number	true	"Latitude"
//	@Param		lng			query		number	true	"Longitude"
//	@Param		precision	query		int		false	"Characters, 1-12"	default(9)
//	@Success	200			{object}	GeohashResponse
//	@Failure	400			{object}	ErrorResponse
//	@Router		/geohash [get]
func (h *GeohashHandler) Encode(c *gin.Context) {
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

	precision := geo.FullPrecision
	if precisionStr := c.Query("precision"); precisionStr != "" {
		precision, err = strconv.Atoi(precisionStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid precision format"})
			return
		}
	}

	hash, neighbors, err := h.service.EncodeGeohash(lat, lng, precision)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, GeohashResponse{Geohash: hash, Neighbors: neighbors})
}
