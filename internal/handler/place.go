package handler

import (
	"context"
	"net/http"

	"github.com/crazyskateface/workbrew-backend/internal/models"

	"github.com/gin-gonic/gin"
)

// PlaceManager is the place service as seen by the HTTP layer.
type PlaceManager interface {
	Get(ctx context.Context, id string) (*models.Place, error)
	List(ctx context.Context) ([]models.Place, error)
	Create(ctx context.Context, place *models.Place) (*models.Place, error)
	Update(ctx context.Context, id string, place *models.Place) (*models.Place, error)
	Delete(ctx context.Context, id string) error
}

// PlaceHandler handles place CRUD requests
type PlaceHandler struct {
	service PlaceManager
}

// NewPlaceHandler creates a new place handler
func NewPlaceHandler(svc PlaceManager) *PlaceHandler {
	return &PlaceHandler{service: svc}
}

// Get handles GET /places/:id requests
//
//	@Summary	Get a place
//	@Tags		places
//	@Produce	json
//	@Param		id	path		string	true	"Place ID"
//	@Success	200	{object}	models.Place
//	@Failure	404	{object}	ErrorResponse
//	@Router		/places/{id} [get]
func (h *PlaceHandler) Get(c *gin.Context) {
	place, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, place)
}

// List handles GET /places requests
//
//	@Summary	List all places
//	@Tags		places
//	@Produce	json
//	@Success	200	{array}	models.Place
//	@Router		/places [get]
func (h *PlaceHandler) List(c *gin.Context) {
	places, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, places)
}

// Create handles POST /places requests
//
//	@Summary	Create a place
//	@Tags		places
//	@Accept		json
//	@Produce	json
//	@Param		place	body		models.Place	true	"Place"
//	@Success	201		{object}	models.Place
//	@Failure	400		{object}	ErrorResponse
//	@Router		/places [post]
func (h *PlaceHandler) Create(c *gin.Context) {
	var place models.Place
	if err := c.ShouldBindJSON(&place); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.service.Create(c.Request.Context(), &place)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Update handles PUT /places/:id requests
//
//	@Summary	Replace a place
//	@Tags		places
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"Place ID"
//	@Param		place	body		models.Place	true	"Place"
//	@Success	200		{object}	models.Place
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/places/{id} [put]
func (h *PlaceHandler) Update(c *gin.Context) {
	var place models.Place
	if err := c.ShouldBindJSON(&place); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), c.Param("id"), &place)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /places/:id requests
//
//	@Summary	Delete a place
//	@Tags		places
//	@Param		id	path	string	true	"Place ID"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/places/{id} [delete]
func (h *PlaceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
