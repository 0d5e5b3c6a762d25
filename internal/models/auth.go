package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleCustomer UserRole = "customer"
	RoleRider    UserRole = "rider"
)

// JWTClaims is the identity descriptor resolved from an access token. Token
// issuance lives in the auth service; this backend only verifies and reads.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	RiderCode string   `json:"rider_code,omitempty"`
	AccountNo string   `json:"account_no,omitempty"`
	jwt.RegisteredClaims
}

// Actor returns the best display handle for audit trails.
func (c *JWTClaims) Actor() string {
	if c == nil {
		return "system"
	}
	if c.RiderCode != "" {
		return c.RiderCode
	}
	return c.UserID
}

// Pagination describes offset paging metadata in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
