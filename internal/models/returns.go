package models

import (
	"time"

	"github.com/lib/pq"
)

// ReturnOutcome enumerates return batch dispositions.
type ReturnOutcome string

const (
	OutcomeToBeSentBack     ReturnOutcome = "to_be_sent_back"
	OutcomeReceivedAtOffice ReturnOutcome = "received_at_office"
	OutcomeOther            ReturnOutcome = "other"
)

// ReturnSheet is a rider's daily batch of consignments handed back
// undelivered. OrderStatuses is index-aligned with ConsignmentNumbers and
// snapshots the status each consignment had when it was registered.
type ReturnSheet struct {
	ID                 string         `db:"id" json:"id"`
	RiderID            string         `db:"rider_id" json:"riderId"`
	RiderName          string         `db:"rider_name" json:"riderName"`
	RiderCode          string         `db:"rider_code" json:"riderCode"`
	ConsignmentNumbers pq.StringArray `db:"consignment_numbers" json:"consignmentNumbers"`
	OrderStatuses      pq.StringArray `db:"order_statuses" json:"orderStatuses"`
	Count              int            `db:"count" json:"count"`
	Outcome            ReturnOutcome  `db:"outcome" json:"outcome"`
	Remarks            string         `db:"remarks" json:"remarks,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updatedAt"`
}

// Contains reports whether the batch already holds the consignment number.
func (s *ReturnSheet) Contains(cn string) bool {
	for _, existing := range s.ConsignmentNumbers {
		if existing == cn {
			return true
		}
	}
	return false
}
