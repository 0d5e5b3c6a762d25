package dto

import (
	"time"

	"github.com/visionary-built/MyCourierBackend/internal/models"
)

// CreateBookingRequest is the booking submission payload. AccountNo and
// AgentName default from the authenticated customer when omitted.
type CreateBookingRequest struct {
	ConsignmentNumber string  `json:"consignmentNumber" validate:"required"`
	ConsigneeName     string  `json:"consigneeName" validate:"required"`
	ConsigneeAddress  string  `json:"consigneeAddress" validate:"required"`
	ConsigneeMobile   string  `json:"consigneeMobile" validate:"required"`
	Pieces            int     `json:"pieces"`
	Weight            float64 `json:"weight"`
	CODAmount         float64 `json:"codAmount"`
	ReferenceNo       string  `json:"referenceNo"`
	DestinationCity   string  `json:"destinationCity"`
	OriginCity        string  `json:"originCity"`
	ServiceType       string  `json:"serviceType"`
	AccountNo         string  `json:"accountNo"`
	AgentName         string  `json:"agentName"`
	Remarks           string  `json:"remarks"`
}

// BookingRejection is returned when creation fails screening; it carries both
// the blocking and the advisory flags so the caller can decide what to fix.
type BookingRejection struct {
	Critical []string `json:"critical"`
	Moderate []string `json:"moderate"`
}

// UpdateStatusRequest changes a consignment's lifecycle status.
type UpdateStatusRequest struct {
	Status  models.ConsignmentStatus `json:"status" validate:"required"`
	Remarks string                   `json:"remarks"`
	Reason  string                   `json:"reason"`
}

// ConsignmentFilter narrows booking list queries.
type ConsignmentFilter struct {
	Status             models.ConsignmentStatus
	DestinationCity    string
	OriginCity         string
	AccountNo          string
	ConsignmentNumbers []string
	DateFrom           *time.Time
	DateTo             *time.Time
	Page               int
	Limit              int
}

// BookingItem is the normalized listing shape consumed by the reporting,
// labeling and invoicing facade. It tolerates either record family.
type BookingItem struct {
	Consignment   *models.Consignment `json:"consignment"`
	DeliverySheet *SheetSummary       `json:"deliverySheet,omitempty"`
}

// SheetSummary is the denormalized sheet info attached to booking listings.
type SheetSummary struct {
	ID          string             `json:"id"`
	RiderID     string             `json:"riderId"`
	RiderName   string             `json:"riderName"`
	RiderCode   string             `json:"riderCode"`
	Status      models.SheetStatus `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
}
