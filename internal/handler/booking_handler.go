package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/models"
	"github.com/visionary-built/MyCourierBackend/internal/service"
	appErrors "github.com/visionary-built/MyCourierBackend/pkg/errors"
	"github.com/visionary-built/MyCourierBackend/pkg/response"
)

// BookingHandler exposes consignment booking endpoints.
type BookingHandler struct {
	consignments *service.ConsignmentService
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(consignments *service.ConsignmentService) *BookingHandler {
	return &BookingHandler{consignments: consignments}
}

// Create godoc
// @Summary Create a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body dto.CreateBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	con, rejection, err := h.consignments.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		if rejection != nil {
			appErr := appErrors.FromError(err)
			c.JSON(appErr.Status, response.Envelope{Error: appErr, Data: rejection})
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, con)
}

// Get godoc
// @Summary Look up a consignment by number
// @Tags Bookings
// @Produce json
// @Param cn path string true "Consignment number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bookings/{cn} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	con, err := h.consignments.FindByNumber(c.Request.Context(), c.Param("cn"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, con, nil)
}

// List godoc
// @Summary List bookings
// @Tags Bookings
// @Produce json
// @Param status query string false "Filter by status"
// @Param destinationCity query string false "Filter by destination city"
// @Param originCity query string false "Filter by origin city"
// @Param dateFrom query string false "Booking date from (YYYY-MM-DD)"
// @Param dateTo query string false "Booking date to (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	var filter dto.ConsignmentFilter
	filter.Status = models.ConsignmentStatus(c.Query("status"))
	filter.DestinationCity = c.Query("destinationCity")
	filter.OriginCity = c.Query("originCity")
	if from, err := time.Parse("2006-01-02", c.Query("dateFrom")); err == nil {
		filter.DateFrom = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("dateTo")); err == nil {
		filter.DateTo = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		filter.Limit = limit
	}

	items, pagination, err := h.consignments.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// UpdateStatus godoc
// @Summary Update a consignment's status
// @Tags Bookings
// @Accept json
// @Produce json
// @Param cn path string true "Consignment number"
// @Param payload body dto.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /bookings/{cn}/status [put]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	con, err := h.consignments.UpdateStatus(c.Request.Context(), claimsFromContext(c), c.Param("cn"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, con, nil)
}

// AppendRemark godoc
// @Summary Append a remark to a consignment
// @Tags Bookings
// @Accept json
// @Produce json
// @Param cn path string true "Consignment number"
// @Param payload body object true "Remark payload"
// @Success 204
// @Router /bookings/{cn}/remarks [post]
func (h *BookingHandler) AppendRemark(c *gin.Context) {
	var req struct {
		Remark string `json:"remark"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.consignments.AppendRemark(c.Request.Context(), c.Param("cn"), req.Remark); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
