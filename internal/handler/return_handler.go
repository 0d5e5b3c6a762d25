package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/visionary-built/MyCourierBackend/internal/dto"
	"github.com/visionary-built/MyCourierBackend/internal/models"
	"github.com/visionary-built/MyCourierBackend/internal/service"
	appErrors "github.com/visionary-built/MyCourierBackend/pkg/errors"
	"github.com/visionary-built/MyCourierBackend/pkg/response"
)

// ReturnHandler exposes return sheet endpoints.
type ReturnHandler struct {
	returns *service.ReturnService
}

// NewReturnHandler constructs ReturnHandler.
func NewReturnHandler(returns *service.ReturnService) *ReturnHandler {
	return &ReturnHandler{returns: returns}
}

// Register godoc
// @Summary Register a consignment as returned
// @Tags Returns
// @Accept json
// @Produce json
// @Param payload body dto.RegisterReturnRequest true "Return payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /returns [post]
func (h *ReturnHandler) Register(c *gin.Context) {
	var req dto.RegisterReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	batch, err := h.returns.Register(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, batch)
}

// Today godoc
// @Summary Get the rider's return sheet for today
// @Tags Returns
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /returns/today [get]
func (h *ReturnHandler) Today(c *gin.Context) {
	batch, err := h.returns.TodayBatch(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// Complete godoc
// @Summary Record a return sheet's outcome
// @Tags Returns
// @Accept json
// @Produce json
// @Param id path string true "Return sheet ID"
// @Param payload body dto.CompleteReturnRequest false "Outcome payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /returns/{id}/complete [put]
func (h *ReturnHandler) Complete(c *gin.Context) {
	var req dto.CompleteReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	batch, err := h.returns.Complete(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// List godoc
// @Summary List return sheets
// @Tags Returns
// @Produce json
// @Param riderId query string false "Filter by rider"
// @Param outcome query string false "Filter by outcome"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /returns [get]
func (h *ReturnHandler) List(c *gin.Context) {
	var filter dto.ReturnFilter
	filter.RiderID = c.Query("riderId")
	filter.Outcome = models.ReturnOutcome(c.Query("outcome"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		filter.Limit = limit
	}

	batches, pagination, err := h.returns.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batches, pagination)
}
