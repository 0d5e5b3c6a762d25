package service

import (
	"strings"

	"github.com/visionary-built/MyCourierBackend/internal/models"
)

// Critical flags block creation and trigger automated cancellation.
const (
	FlagMissingCustomer        = "missing_customer"
	FlagInvalidMobile          = "invalid_mobile"
	FlagMissingDestinationCity = "missing_destination_city"
	FlagMissingCODAmount       = "missing_cod_amount"
	FlagInvalidWeightOrPieces  = "invalid_weight_or_pieces"
	FlagMissingServiceType     = "missing_service_type"
	FlagDuplicateCN            = "duplicate_cn"
)

// Moderate flags are advisory; they never block or cancel a booking.
const (
	FlagTestBookingKeyword = "test_booking_keyword"
	FlagLowCODHighWeight   = "low_cod_high_weight"
	FlagMismatchOriginCity = "mismatch_origin_city"
	FlagOutOfCoverageArea  = "out_of_coverage_area"
)

var testKeywords = []string{"test", "demo", "trial"}

// ValidationConfig carries the branch geography used by the advisory rules.
type ValidationConfig struct {
	BranchCity        string
	ServiceableCities []string
}

// Classifier screens consignments for booking quality issues. It is a pure
// rule engine; persistence of the result is the caller's concern.
type Classifier struct {
	branchCity  string
	serviceable map[string]struct{}
}

// NewClassifier constructs a classifier from config.
func NewClassifier(cfg ValidationConfig) *Classifier {
	serviceable := make(map[string]struct{}, len(cfg.ServiceableCities))
	for _, city := range cfg.ServiceableCities {
		serviceable[strings.ToLower(strings.TrimSpace(city))] = struct{}{}
	}
	return &Classifier{
		branchCity:  strings.TrimSpace(cfg.BranchCity),
		serviceable: serviceable,
	}
}

// Classify returns the consignment's critical and moderate flags. A cached
// result on the consignment is returned unchanged, so re-screening a record
// never rewrites history.
func (c *Classifier) Classify(con *models.Consignment) models.ValidationFlags {
	if con.ValidationFlags.Computed() {
		return con.ValidationFlags
	}
	return c.compute(con)
}

// ClassifyCreation screens a brand-new booking. The duplicate check is only
// meaningful before the record exists, so it lives on this path alone.
func (c *Classifier) ClassifyCreation(con *models.Consignment, duplicate bool) models.ValidationFlags {
	flags := c.compute(con)
	if duplicate {
		flags.Critical = append(flags.Critical, FlagDuplicateCN)
	}
	return flags
}

func (c *Classifier) compute(con *models.Consignment) models.ValidationFlags {
	critical := []string{}
	moderate := []string{}

	if strings.TrimSpace(con.AccountNo) == "" || strings.TrimSpace(con.AgentName) == "" {
		critical = append(critical, FlagMissingCustomer)
	}
	if mobile := strings.TrimSpace(con.ConsigneeMobile); mobile != "" && !isElevenDigits(mobile) {
		critical = append(critical, FlagInvalidMobile)
	}
	if strings.TrimSpace(con.DestinationCity) == "" {
		critical = append(critical, FlagMissingDestinationCity)
	}
	if con.CODAmount <= 0 {
		critical = append(critical, FlagMissingCODAmount)
	}
	if con.Weight <= 0 || con.Pieces <= 0 {
		critical = append(critical, FlagInvalidWeightOrPieces)
	}
	if strings.TrimSpace(con.ServiceType) == "" {
		critical = append(critical, FlagMissingServiceType)
	}

	if containsTestKeyword(con.Remarks) {
		moderate = append(moderate, FlagTestBookingKeyword)
	}
	if con.CODAmount < 1 && con.Weight > 10 {
		moderate = append(moderate, FlagLowCODHighWeight)
	}
	if origin := strings.TrimSpace(con.OriginCity); origin != "" && !strings.EqualFold(origin, c.branchCity) {
		moderate = append(moderate, FlagMismatchOriginCity)
	}
	if dest := strings.TrimSpace(con.DestinationCity); dest != "" {
		if _, ok := c.serviceable[strings.ToLower(dest)]; !ok {
			moderate = append(moderate, FlagOutOfCoverageArea)
		}
	}

	return models.ValidationFlags{Critical: critical, Moderate: moderate}
}

func isElevenDigits(s string) bool {
	if len(s) != 11 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsTestKeyword(remarks string) bool {
	lower := strings.ToLower(remarks)
	for _, kw := range testKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
