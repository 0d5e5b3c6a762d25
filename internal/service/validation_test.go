package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionary-built/MyCourierBackend/internal/models"
)

func testClassifier() *Classifier {
	return NewClassifier(ValidationConfig{
		BranchCity:        "Karachi",
		ServiceableCities: []string{"Karachi", "Lahore", "Islamabad"},
	})
}

func cleanConsignment() *models.Consignment {
	return &models.Consignment{
		ConsignmentNumber: "CN1001",
		ConsigneeMobile:   "03001234567",
		Pieces:            1,
		Weight:            2.5,
		CODAmount:         1500,
		DestinationCity:   "Lahore",
		OriginCity:        "Karachi",
		ServiceType:       "overnight",
		AccountNo:         "ACC-1",
		AgentName:         "Agent One",
	}
}

func TestClassifyCleanConsignment(t *testing.T) {
	flags := testClassifier().Classify(cleanConsignment())

	assert.Empty(t, flags.Critical)
	assert.Empty(t, flags.Moderate)
	assert.True(t, flags.Computed())
}

func TestClassifyCriticalFlags(t *testing.T) {
	con := cleanConsignment()
	con.AccountNo = ""
	con.ConsigneeMobile = "12345"
	con.DestinationCity = ""
	con.CODAmount = 0
	con.Weight = 0
	con.ServiceType = ""

	flags := testClassifier().Classify(con)

	assert.ElementsMatch(t, []string{
		FlagMissingCustomer,
		FlagInvalidMobile,
		FlagMissingDestinationCity,
		FlagMissingCODAmount,
		FlagInvalidWeightOrPieces,
		FlagMissingServiceType,
	}, flags.Critical)
	assert.True(t, flags.HasCritical())
}

func TestClassifyZeroCODIsCritical(t *testing.T) {
	con := cleanConsignment()
	con.CODAmount = 0

	flags := testClassifier().Classify(con)

	assert.Equal(t, []string{FlagMissingCODAmount}, flags.Critical)
}

func TestClassifyEmptyMobileNotFlagged(t *testing.T) {
	con := cleanConsignment()
	con.ConsigneeMobile = ""

	flags := testClassifier().Classify(con)

	assert.NotContains(t, flags.Critical, FlagInvalidMobile)
}

func TestClassifyModerateFlags(t *testing.T) {
	con := cleanConsignment()
	con.Remarks = "This is a TEST entry"
	con.CODAmount = 0.5
	con.Weight = 12
	con.OriginCity = "Multan"
	con.DestinationCity = "Quetta"

	flags := testClassifier().Classify(con)

	assert.ElementsMatch(t, []string{
		FlagTestBookingKeyword,
		FlagLowCODHighWeight,
		FlagMismatchOriginCity,
		FlagOutOfCoverageArea,
	}, flags.Moderate)
	assert.Empty(t, flags.Critical)
}

func TestClassifyOriginMatchIsCaseInsensitive(t *testing.T) {
	con := cleanConsignment()
	con.OriginCity = "KARACHI"

	flags := testClassifier().Classify(con)

	assert.NotContains(t, flags.Moderate, FlagMismatchOriginCity)
}

func TestClassifyEmptyOriginNotMismatched(t *testing.T) {
	con := cleanConsignment()
	con.OriginCity = ""

	flags := testClassifier().Classify(con)

	assert.NotContains(t, flags.Moderate, FlagMismatchOriginCity)
}

func TestClassifyReturnsCachedFlags(t *testing.T) {
	con := cleanConsignment()
	con.ValidationFlags = models.ValidationFlags{
		Critical: []string{FlagMissingCustomer},
		Moderate: []string{},
	}
	// The cached result wins even though the record itself is clean now.
	flags := testClassifier().Classify(con)

	assert.Equal(t, []string{FlagMissingCustomer}, flags.Critical)
}

func TestClassifyCreationDuplicate(t *testing.T) {
	flags := testClassifier().ClassifyCreation(cleanConsignment(), true)

	require.Contains(t, flags.Critical, FlagDuplicateCN)
	assert.True(t, flags.HasCritical())
}

func TestClassifyCreationIgnoresCachedFlags(t *testing.T) {
	con := cleanConsignment()
	con.ValidationFlags = models.ValidationFlags{Critical: []string{FlagMissingServiceType}, Moderate: []string{}}

	flags := testClassifier().ClassifyCreation(con, false)

	assert.Empty(t, flags.Critical)
}
