package models

import "time"

// Rider is the delivery rider directory entry. The profile itself is managed
// elsewhere; assignment and return flows only need identity and activity.
type Rider struct {
	ID        string    `db:"id" json:"id"`
	RiderName string    `db:"rider_name" json:"riderName"`
	RiderCode string    `db:"rider_code" json:"riderCode"`
	MobileNo  string    `db:"mobile_no" json:"mobileNo"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
