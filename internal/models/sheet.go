package models

import (
	"time"

	"github.com/lib/pq"
)

// SheetStatus enumerates delivery sheet states. Only "active" sheets hold a
// claim on their consignment numbers.
type SheetStatus string

const (
	SheetActive    SheetStatus = "active"
	SheetPending   SheetStatus = "pending"
	SheetInTransit SheetStatus = "in-transit"
	SheetDelivered SheetStatus = "delivered"
	SheetCancelled SheetStatus = "cancelled"
	SheetCompleted SheetStatus = "completed"
)

// DeliverySheet links one rider to the consignments currently in their
// custody. The current assignment flow creates one sheet per consignment;
// historical sheets may carry several numbers.
type DeliverySheet struct {
	ID                 string         `db:"id" json:"id"`
	RiderID            string         `db:"rider_id" json:"riderId"`
	RiderName          string         `db:"rider_name" json:"riderName"`
	RiderCode          string         `db:"rider_code" json:"riderCode"`
	ConsignmentNumbers pq.StringArray `db:"consignment_numbers" json:"consignmentNumbers"`
	Count              int            `db:"count" json:"count"`
	Status             SheetStatus    `db:"status" json:"status"`
	CompletedAt        *time.Time     `db:"completed_at" json:"completedAt,omitempty"`
	Remarks            string         `db:"remarks" json:"remarks,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updatedAt"`
}

// Contains reports whether the sheet holds the given consignment number.
func (s *DeliverySheet) Contains(cn string) bool {
	for _, existing := range s.ConsignmentNumbers {
		if existing == cn {
			return true
		}
	}
	return false
}
