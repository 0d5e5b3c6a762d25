package dto

import "github.com/visionary-built/MyCourierBackend/internal/models"

// RegisterReturnRequest records a consignment handed back by a rider.
// RiderID is optional; it defaults to the authenticated rider.
type RegisterReturnRequest struct {
	RiderID           string `json:"riderId"`
	ConsignmentNumber string `json:"consignmentNumber" validate:"required"`
}

// CompleteReturnRequest moves a return batch to its next outcome.
type CompleteReturnRequest struct {
	Outcome models.ReturnOutcome `json:"outcome"`
	Remarks string               `json:"remarks"`
}

// ReturnFilter narrows admin return batch listings.
type ReturnFilter struct {
	RiderID string
	Outcome models.ReturnOutcome
	Page    int
	Limit   int
}

// ReturnSheetWithParcels pairs a return batch with its parcel details.
type ReturnSheetWithParcels struct {
	ReturnSheet *models.ReturnSheet  `json:"returnSheet"`
	Parcels     []models.Consignment `json:"parcels"`
}
