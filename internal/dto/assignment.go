package dto

import "github.com/visionary-built/MyCourierBackend/internal/models"

// AssignRequest puts a consignment on a rider's delivery sheet.
type AssignRequest struct {
	RiderID           string `json:"riderId" validate:"required"`
	ConsignmentNumber string `json:"consignmentNumber" validate:"required"`
}

// RemoveConsignmentRequest takes a consignment back off a rider's sheet.
type RemoveConsignmentRequest struct {
	RiderID           string `json:"riderId" validate:"required"`
	ConsignmentNumber string `json:"consignmentNumber" validate:"required"`
}

// DeclineRequest is the rider's refusal of an assigned consignment.
type DeclineRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}

// CompleteSheetRequest closes out a rider's active sheet.
type CompleteSheetRequest struct {
	Remarks string `json:"remarks"`
}

// SheetFilter narrows admin sheet listings.
type SheetFilter struct {
	Status  models.SheetStatus
	RiderID string
	Page    int
	Limit   int
}

// ParcelItem is a sheet-scoped parcel view merged from both record families.
type ParcelItem struct {
	ConsignmentNumber string                   `json:"consignmentNumber"`
	DestinationCity   string                   `json:"destinationCity"`
	AccountNo         string                   `json:"accountNo"`
	AgentName         string                   `json:"agentName"`
	Status            models.ConsignmentStatus `json:"status"`
	BookingDate       string                   `json:"bookingDate"`
	DeliveryDate      string                   `json:"deliveryDate,omitempty"`
	Remarks           string                   `json:"remarks,omitempty"`
	Source            models.ConsignmentSource `json:"source"`
}

// SheetWithParcels pairs a delivery sheet with its parcel details.
type SheetWithParcels struct {
	DeliverySheet *models.DeliverySheet `json:"deliverySheet"`
	Parcels       []ParcelItem          `json:"parcels"`
}
