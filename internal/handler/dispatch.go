package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shiptrack/internal/redis"
)

const defaultNearbyRadiusKm = 50.0

// DispatchHandler serves dispatch dashboard queries over the live geo index.
type DispatchHandler struct {
	locations redis.LocationStoreInterface
}

// NewDispatchHandler creates a new DispatchHandler.
func NewDispatchHandler(locations redis.LocationStoreInterface) *DispatchHandler {
	return &DispatchHandler{locations: locations}
}

// NearbyOrders handles GET /v1/dispatch/nearby?lng=&lat=&radius_km=
func (h *DispatchHandler) NearbyOrders(c *gin.Context) {
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid lng"})
		return
	}
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid lat"})
		return
	}

	radius := defaultNearbyRadiusKm
	if raw := c.Query("radius_km"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid radius_km"})
			return
		}
	}

	orders, err := h.locations.FindNearbyOrders(c.Request.Context(), lng, lat, radius)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, orders)
}
