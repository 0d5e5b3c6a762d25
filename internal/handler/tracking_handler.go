package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/visionary-built/MyCourierBackend/internal/service"
	"github.com/visionary-built/MyCourierBackend/pkg/response"
)

// TrackingHandler exposes the public shipment tracking endpoint.
type TrackingHandler struct {
	tracking *service.TrackingService
}

// NewTrackingHandler constructs TrackingHandler.
func NewTrackingHandler(tracking *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking}
}

// Track godoc
// @Summary Track a consignment
// @Tags Tracking
// @Produce json
// @Param cn path string true "Consignment number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /track/{cn} [get]
func (h *TrackingHandler) Track(c *gin.Context) {
	view, err := h.tracking.Track(c.Request.Context(), c.Param("cn"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
