package catalog

import "strings"

// Table names as stored on disk (without the .csv extension).
const (
	TableScenarios     = "Test_Scenarios"
	TableCases         = "Test_Cases"
	TableParameterSets = "Test_Data"
)

// Scenario columns.
const (
	ColScenarioID          = "Test Scenario ID"
	ColScenarioName        = "Test Scenario Name"
	ColScenarioDescription = "Description"
	ColScenarioPriority    = "Priority"
	ColScenarioStatus      = "Status"
	ColScenarioTags        = "Tags"
)

// Test case columns.
const (
	ColCaseID             = "Test Case ID"
	ColCaseScenarioID     = "Test Scenario ID"
	ColCaseName           = "Test Case Name"
	ColCaseDescription    = "Description"
	ColCasePreconditions  = "Preconditions"
	ColCaseSteps          = "Test Steps"
	ColCaseExpectedResult = "Expected Result"
	ColCaseTestData       = "Test Data"
	ColCasePriority       = "Priority"
	ColCaseSeverity       = "Severity"
	ColCaseStatus         = "Status"
	ColCaseAutomation     = "Automation Status"
)

// Parameter set columns.
const (
	ColDataSetID         = "Data Set ID"
	ColDataSetName       = "Data Set Name"
	ColDataDescription   = "Description"
	ColDataCaseIDs       = "Test Case IDs"
	ColDataType          = "Data Type"
	ColDataValues        = "Data Values"
	ColDataExpectedError = "Expected Validation Message"
)

// Required header columns per table. Optional columns may be absent and
// read as empty strings.
var (
	scenarioColumns = []string{ColScenarioID, ColScenarioName}
	caseColumns     = []string{ColCaseID, ColCaseScenarioID, ColCaseName, ColCaseSteps, ColCaseTestData, ColCaseAutomation}
	dataColumns     = []string{ColDataSetID, ColDataValues}
)

// AutomatedStatus marks a case that should be materialized.
const AutomatedStatus = "Automated"

// Scenario groups related test cases. It is never executed directly.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Priority    string
	Status      string
	Tags        []string
}

// TestCase is one automatable unit of verification.
type TestCase struct {
	ID             string
	ScenarioID     string
	Name           string
	Description    string
	Preconditions  string
	StepText       string // raw pipe-delimited step sequence
	ExpectedResult string
	DataSetID      string
	Priority       string
	Severity       string
	Status         string
	Automation     string
}

// Steps returns the trimmed, non-empty step descriptions in authored order.
func (c TestCase) Steps() []string {
	return SplitList(c.StepText, '|')
}

// Automated reports whether the case is flagged for automation.
func (c TestCase) Automated() bool {
	return strings.EqualFold(strings.TrimSpace(c.Automation), AutomatedStatus)
}

// ParameterSet supplies data values to one or more cases.
type ParameterSet struct {
	ID          string
	Name        string
	Description string
	CaseIDs     []string
	DataType    string

	// Values is the raw pipe-delimited value list. See param.ParseValues.
	Values string

	// ExpectedMessage is the validation text expected when the data drives
	// an error path. Empty when no message is expected.
	ExpectedMessage string
}

// SplitList splits s on sep, trims each element and drops empty ones.
func SplitList(s string, seps ...rune) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		for _, sep := range seps {
			if r == sep {
				return true
			}
		}
		return false
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
