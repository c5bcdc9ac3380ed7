package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shiptrack/internal/domain"
	"shiptrack/internal/repository"
)

// RouteHandler handles HTTP requests for routes.
type RouteHandler struct {
	routeRepo repository.RouteRepository
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routeRepo repository.RouteRepository) *RouteHandler {
	return &RouteHandler{routeRepo: routeRepo}
}

// RouteResponse is the HTTP representation of a route.
type RouteResponse struct {
	ID          string            `json:"id"`
	OrderID     string            `json:"order_id"`
	Points      []domain.GeoPoint `json:"points"`
	TimeArray   []float64         `json:"time_array"`
	CurrentStep int               `json:"current_step"`
	TotalSteps  int               `json:"total_steps"`
}

// GetRouteByOrder handles GET /v1/orders/:id/route
func (h *RouteHandler) GetRouteByOrder(c *gin.Context) {
	route, err := h.routeRepo.GetByOrderID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RouteResponse{
		ID:          route.ID,
		OrderID:     route.OrderID,
		Points:      route.Points,
		TimeArray:   route.TimeArray,
		CurrentStep: route.CurrentStep,
		TotalSteps:  route.TotalSteps(),
	})
}
