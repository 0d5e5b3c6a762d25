package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ConsignmentStatus enumerates the shipment lifecycle states.
type ConsignmentStatus string

const (
	StatusPending   ConsignmentStatus = "pending"
	StatusInTransit ConsignmentStatus = "in-transit"
	StatusDelivered ConsignmentStatus = "delivered"
	StatusReturned  ConsignmentStatus = "returned"
	StatusCancelled ConsignmentStatus = "cancelled"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s ConsignmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInTransit, StatusDelivered, StatusReturned, StatusCancelled:
		return true
	}
	return false
}

// ConsignmentSource identifies which record family a consignment came from.
type ConsignmentSource string

const (
	SourceBooking ConsignmentSource = "booking_status"
	SourceManual  ConsignmentSource = "manual_booking"
)

// StatusHistoryEntry is a single append-only audit record of a status change.
// Field names follow the persisted wire shape consumed by the reporting facade.
type StatusHistoryEntry struct {
	Status    ConsignmentStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Reason    string            `json:"reason,omitempty"`
	Remarks   string            `json:"remarks,omitempty"`
	UpdatedBy string            `json:"updatedBy,omitempty"`
}

// StatusHistory is the ordered status trail, stored as a JSONB array.
type StatusHistory []StatusHistoryEntry

// Value implements driver.Valuer.
func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner.
func (h *StatusHistory) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*h = nil
		return nil
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	}
	return fmt.Errorf("unsupported status history type %T", src)
}

// ValidationFlags caches the booking screening result. A zero value (both
// slices nil) means the consignment has not been classified yet; a computed
// result always carries non-nil slices, even when empty.
type ValidationFlags struct {
	Critical []string `json:"criticalFlags"`
	Moderate []string `json:"moderateFlags"`
}

// Computed reports whether classification has run for this consignment.
func (f ValidationFlags) Computed() bool {
	return f.Critical != nil || f.Moderate != nil
}

// HasCritical reports whether any blocking flag is present.
func (f ValidationFlags) HasCritical() bool {
	return len(f.Critical) > 0
}

// Value implements driver.Valuer. Uncomputed flags persist as NULL so the
// auto-void sweep can find consignments that still need classification.
func (f ValidationFlags) Value() (driver.Value, error) {
	if !f.Computed() {
		return nil, nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *ValidationFlags) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*f = ValidationFlags{}
		return nil
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	}
	return fmt.Errorf("unsupported validation flags type %T", src)
}

// Consignment is the unified shipment record. Both record families (agency
// bookings and manually entered bookings) normalize into this shape at the
// repository boundary; Source tells them apart.
type Consignment struct {
	ID                string            `db:"id" json:"id"`
	ConsignmentNumber string            `db:"consignment_number" json:"consignmentNumber"`
	ConsigneeName     string            `db:"consignee_name" json:"consigneeName"`
	ConsigneeAddress  string            `db:"consignee_address" json:"consigneeAddress"`
	ConsigneeMobile   string            `db:"consignee_mobile" json:"consigneeMobile"`
	Pieces            int               `db:"pieces" json:"pieces"`
	Weight            float64           `db:"weight" json:"weight"`
	CODAmount         float64           `db:"cod_amount" json:"codAmount"`
	ReferenceNo       string            `db:"reference_no" json:"referenceNo,omitempty"`
	DestinationCity   string            `db:"destination_city" json:"destinationCity"`
	OriginCity        string            `db:"origin_city" json:"originCity,omitempty"`
	ServiceType       string            `db:"service_type" json:"serviceType,omitempty"`
	Fragile           bool              `db:"fragile" json:"fragile,omitempty"`
	DeliveryCharges   float64           `db:"delivery_charges" json:"deliveryCharges,omitempty"`
	ProductDetail     string            `db:"product_detail" json:"productDetail,omitempty"`
	AccountNo         string            `db:"account_no" json:"accountNo"`
	AgentName         string            `db:"agent_name" json:"agentName"`
	Status            ConsignmentStatus `db:"status" json:"status"`
	StatusHistory     StatusHistory     `db:"status_history" json:"statusHistory"`
	BookingDate       time.Time         `db:"booking_date" json:"bookingDate"`
	DeliveryDate      *time.Time        `db:"delivery_date" json:"deliveryDate,omitempty"`
	Remarks           string            `db:"remarks" json:"remarks,omitempty"`
	ValidationFlags   ValidationFlags   `db:"validation_flags" json:"validationFlags"`
	Source            ConsignmentSource `db:"-" json:"source"`
	CreatedAt         time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updatedAt"`
}

// VoidedConsignment summarises one auto-void decision for audit responses.
type VoidedConsignment struct {
	ConsignmentNumber string   `json:"consignmentNumber"`
	Reason            string   `json:"reason"`
	Flags             []string `json:"flags"`
}
