package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"twc-observations/internal/observations"

	"github.com/gin-gonic/gin"
)

// GetObservationsInput defines the path parameters for the observations endpoint
type GetObservationsInput struct {
	ID string `uri:"id" binding:"required"` // "<itemId>:<layerIndex>"
}

// handleGetObservations godoc
// @Summary Get weather observations for a web map layer
// @Description Resolve an operational layer of an ArcGIS web map, query up to 50 of its point features and return each one merged with its current weather observation as GeoJSON
// @Tags observations
// @Produce json
// @Param id path string true "Web map item id and operational layer index" example(7a1ae2d1b4cd4b5f9e0e2c1c3a6d1e2f:0)
// @Success 200 {object} map[string]interface{} "GeoJSON FeatureCollection with ttl and metadata members"
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /observations/{id} [get]
func (app *App) handleGetObservations(c *gin.Context) {
	var input GetObservationsInput

	// Bind and validate path parameters
	if err := c.ShouldBindUri(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	cached, found, err := app.cache.Get(ctx, input.ID)
	if err != nil {
		app.logger.Warn("cache lookup failed", "id", input.ID, "error", err)
	}
	if found {
		c.Header("Cache-Control", cacheControl(cached.TTL))
		c.Header("X-Cache", "HIT")
		c.Data(http.StatusOK, "application/json; charset=utf-8", cached.Data)
		return
	}

	// Delegate to business layer
	result, err := app.observationService.GetData(ctx, input.ID)
	if err != nil {
		switch {
		case errors.Is(err, observations.ErrInvalidLayerID):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, observations.ErrLayerNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			app.logger.Error("failed to get observations",
				"id", input.ID,
				"error", err,
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get observations"})
		}
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		app.logger.Error("failed to encode observations", "id", input.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode observations"})
		return
	}

	ttl := time.Duration(result.TTL) * time.Second
	if err := app.cache.Set(ctx, input.ID, body, ttl); err != nil {
		app.logger.Warn("failed to cache observations", "id", input.ID, "error", err)
	}

	c.Header("Cache-Control", cacheControl(ttl))
	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// cacheControl advertises the remaining freshness lifetime in whole seconds
func cacheControl(ttl time.Duration) string {
	return fmt.Sprintf("public, max-age=%d", int64(max(ttl.Round(time.Second), 0)/time.Second))
}
