package dto

import (
	"time"

	"github.com/visionary-built/MyCourierBackend/internal/models"
)

// TrackingView is the public shipment trail exposed to customers. It omits
// operational fields like COD amounts and validation flags.
type TrackingView struct {
	ConsignmentNumber string                      `json:"consignmentNumber"`
	Status            models.ConsignmentStatus    `json:"status"`
	DestinationCity   string                      `json:"destinationCity"`
	OriginCity        string                      `json:"originCity,omitempty"`
	BookingDate       time.Time                   `json:"bookingDate"`
	DeliveryDate      *time.Time                  `json:"deliveryDate,omitempty"`
	History           []models.StatusHistoryEntry `json:"history"`
}
