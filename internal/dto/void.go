package dto

import (
	"time"

	"github.com/visionary-built/MyCourierBackend/internal/models"
)

// VoidRequest cancels a consignment manually.
type VoidRequest struct {
	ConsignmentNumber string `json:"consignmentNumber" validate:"required"`
	Reason            string `json:"reason"`
	Remarks           string `json:"remarks"`
}

// VoidFilter narrows the cancelled consignment listing.
type VoidFilter struct {
	DestinationCity string
	OriginCity      string
	ConsignmentFrom string
	ConsignmentTo   string
	DateFrom        *time.Time
	DateTo          *time.Time
	Page            int
	Limit           int
}

// VoidSummary buckets the listed consignments by validation severity.
type VoidSummary struct {
	Total   int `json:"total"`
	Invalid int `json:"invalid"`
	Flagged int `json:"flagged"`
	Valid   int `json:"valid"`
}

// VoidListResult is the void listing payload.
type VoidListResult struct {
	Consignments []models.Consignment       `json:"consignments"`
	Summary      VoidSummary                `json:"summary"`
	Swept        []models.VoidedConsignment `json:"swept,omitempty"`
}
