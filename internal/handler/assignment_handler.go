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

// AssignmentHandler exposes delivery sheet endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Assign godoc
// @Summary Assign a consignment to a rider
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.AssignRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sheets/assign [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sheet, err := h.assignments.Assign(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sheet)
}

// Remove godoc
// @Summary Remove a consignment from a rider's sheet
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.RemoveConsignmentRequest true "Removal payload"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /sheets/remove [post]
func (h *AssignmentHandler) Remove(c *gin.Context) {
	var req dto.RemoveConsignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.assignments.Remove(c.Request.Context(), claimsFromContext(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Accept godoc
// @Summary Accept an assigned consignment
// @Tags Assignments
// @Produce json
// @Param cn path string true "Consignment number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sheets/consignments/{cn}/accept [post]
func (h *AssignmentHandler) Accept(c *gin.Context) {
	con, err := h.assignments.Accept(c.Request.Context(), claimsFromContext(c), c.Param("cn"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, con, nil)
}

// Decline godoc
// @Summary Decline an assigned consignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param cn path string true "Consignment number"
// @Param payload body dto.DeclineRequest true "Decline payload"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sheets/consignments/{cn}/decline [post]
func (h *AssignmentHandler) Decline(c *gin.Context) {
	var req dto.DeclineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.assignments.Decline(c.Request.Context(), claimsFromContext(c), c.Param("cn"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Complete godoc
// @Summary Complete the rider's active sheet
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.CompleteSheetRequest false "Completion payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sheets/complete [post]
func (h *AssignmentHandler) Complete(c *gin.Context) {
	var req dto.CompleteSheetRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	sheet, err := h.assignments.Complete(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// MySheets godoc
// @Summary List the rider's active sheets with parcels
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sheets/mine [get]
func (h *AssignmentHandler) MySheets(c *gin.Context) {
	sheets, err := h.assignments.MySheets(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheets, nil)
}

// ActiveRiders godoc
// @Summary List riders available for assignment
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /riders/active [get]
func (h *AssignmentHandler) ActiveRiders(c *gin.Context) {
	riders, err := h.assignments.ActiveRiders(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, riders, nil)
}

// List godoc
// @Summary List delivery sheets
// @Tags Assignments
// @Produce json
// @Param status query string false "Filter by sheet status"
// @Param riderId query string false "Filter by rider"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sheets [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	var filter dto.SheetFilter
	filter.Status = models.SheetStatus(c.Query("status"))
	filter.RiderID = c.Query("riderId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		filter.Limit = limit
	}

	sheets, pagination, err := h.assignments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheets, pagination)
}

// Detail godoc
// @Summary Get a delivery sheet with parcels
// @Tags Assignments
// @Produce json
// @Param id path string true "Sheet ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sheets/{id} [get]
func (h *AssignmentHandler) Detail(c *gin.Context) {
	sheet, err := h.assignments.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}
