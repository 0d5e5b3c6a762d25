package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/service"
	appErrors "github.com/visionary-built/MyCourierBackend/pkg/errors"
	"github.com/visionary-built/MyCourierBackend/pkg/response"
)

// VoidHandler exposes cancellation and reconciliation endpoints.
type VoidHandler struct {
	voids *service.VoidService
}

// NewVoidHandler constructs VoidHandler.
func NewVoidHandler(voids *service.VoidService) *VoidHandler {
	return &VoidHandler{voids: voids}
}

// Sweep godoc
// @Summary Run the auto-void reconciliation sweep
// @Tags Voids
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /voids/sweep [post]
func (h *VoidHandler) Sweep(c *gin.Context) {
	voided, err := h.voids.Sweep(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, voided, nil)
}

// List godoc
// @Summary List cancelled consignments
// @Tags Voids
// @Produce json
// @Param destinationCity query string false "Filter by destination city"
// @Param originCity query string false "Filter by origin city"
// @Param cnFrom query string false "Consignment number range start"
// @Param cnTo query string false "Consignment number range end"
// @Param dateFrom query string false "Cancelled from (YYYY-MM-DD)"
// @Param dateTo query string false "Cancelled to (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /voids [get]
func (h *VoidHandler) List(c *gin.Context) {
	var filter dto.VoidFilter
	filter.DestinationCity = c.Query("destinationCity")
	filter.OriginCity = c.Query("originCity")
	filter.ConsignmentFrom = c.Query("cnFrom")
	filter.ConsignmentTo = c.Query("cnTo")
	if from, err := time.Parse("2006-01-02", c.Query("dateFrom")); err == nil {
		filter.DateFrom = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("dateTo")); err == nil {
		filter.DateTo = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.Limit = limit
	}

	result, pagination, err := h.voids.ListVoided(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, pagination)
}

// Void godoc
// @Summary Cancel a consignment
// @Tags Voids
// @Accept json
// @Produce json
// @Param payload body dto.VoidRequest true "Void payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /voids [post]
func (h *VoidHandler) Void(c *gin.Context) {
	var req dto.VoidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	con, err := h.voids.Void(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, con, nil)
}
