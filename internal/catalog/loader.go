package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Loader exposes typed lookups over a TabularStore.
// Every call re-reads the store; nothing is cached between calls.
type Loader struct {
	store  TabularStore
	logger *slog.Logger
}

// NewLoader creates a loader over store. A nil logger discards output.
func NewLoader(store TabularStore, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{store: store, logger: logger}
}

// LoadScenarios returns all scenarios in table order.
func (l *Loader) LoadScenarios(ctx context.Context) ([]Scenario, error) {
	table, err := l.read(ctx, TableScenarios, scenarioColumns)
	if err != nil {
		return nil, err
	}

	scenarios := make([]Scenario, 0, len(table.Rows))
	seen := make(map[string]int, len(table.Rows))
	for i, row := range table.Rows {
		s := Scenario{
			ID:          strings.TrimSpace(row[ColScenarioID]),
			Name:        strings.TrimSpace(row[ColScenarioName]),
			Description: row[ColScenarioDescription],
			Priority:    strings.TrimSpace(row[ColScenarioPriority]),
			Status:      strings.TrimSpace(row[ColScenarioStatus]),
			Tags:        SplitList(row[ColScenarioTags], ',', '|'),
		}
		if err := checkID(table.Name, ColScenarioID, s.ID, i+1, seen); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// LoadCases returns all test cases in table order, automated or not.
func (l *Loader) LoadCases(ctx context.Context) ([]TestCase, error) {
	table, err := l.read(ctx, TableCases, caseColumns)
	if err != nil {
		return nil, err
	}

	cases := make([]TestCase, 0, len(table.Rows))
	seen := make(map[string]int, len(table.Rows))
	for i, row := range table.Rows {
		c := TestCase{
			ID:             strings.TrimSpace(row[ColCaseID]),
			ScenarioID:     strings.TrimSpace(row[ColCaseScenarioID]),
			Name:           strings.TrimSpace(row[ColCaseName]),
			Description:    row[ColCaseDescription],
			Preconditions:  row[ColCasePreconditions],
			StepText:       row[ColCaseSteps],
			ExpectedResult: row[ColCaseExpectedResult],
			DataSetID:      strings.TrimSpace(row[ColCaseTestData]),
			Priority:       strings.TrimSpace(row[ColCasePriority]),
			Severity:       strings.TrimSpace(row[ColCaseSeverity]),
			Status:         strings.TrimSpace(row[ColCaseStatus]),
			Automation:     strings.TrimSpace(row[ColCaseAutomation]),
		}
		if err := checkID(table.Name, ColCaseID, c.ID, i+1, seen); err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// LoadParameterSets returns all parameter sets in table order.
func (l *Loader) LoadParameterSets(ctx context.Context) ([]ParameterSet, error) {
	table, err := l.read(ctx, TableParameterSets, dataColumns)
	if err != nil {
		return nil, err
	}

	sets := make([]ParameterSet, 0, len(table.Rows))
	seen := make(map[string]int, len(table.Rows))
	for i, row := range table.Rows {
		p := ParameterSet{
			ID:              strings.TrimSpace(row[ColDataSetID]),
			Name:            strings.TrimSpace(row[ColDataSetName]),
			Description:     row[ColDataDescription],
			CaseIDs:         SplitList(row[ColDataCaseIDs], ',', '|', ';'),
			DataType:        strings.TrimSpace(row[ColDataType]),
			Values:          row[ColDataValues],
			ExpectedMessage: strings.TrimSpace(row[ColDataExpectedError]),
		}
		if err := checkID(table.Name, ColDataSetID, p.ID, i+1, seen); err != nil {
			return nil, err
		}
		sets = append(sets, p)
	}
	return sets, nil
}

// ParameterSet looks up a parameter set by ID.
// ok is false when no set has that ID; err is reserved for catalog failures.
func (l *Loader) ParameterSet(ctx context.Context, id string) (set ParameterSet, ok bool, err error) {
	sets, err := l.LoadParameterSets(ctx)
	if err != nil {
		return ParameterSet{}, false, err
	}
	id = strings.TrimSpace(id)
	for _, s := range sets {
		if s.ID == id {
			return s, true, nil
		}
	}
	return ParameterSet{}, false, nil
}

// CasesByScenario returns the cases owned by scenarioID in table order.
func (l *Loader) CasesByScenario(ctx context.Context, scenarioID string) ([]TestCase, error) {
	cases, err := l.LoadCases(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]TestCase, 0, len(cases))
	for _, c := range cases {
		if c.ScenarioID == scenarioID {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

func (l *Loader) read(ctx context.Context, name string, required []string) (*Table, error) {
	table, err := l.store.Table(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := table.require(required); err != nil {
		return nil, err
	}
	l.logger.Debug("table loaded", "table", name, "rows", len(table.Rows))
	return table, nil
}

func checkID(table, column, id string, row int, seen map[string]int) error {
	if id == "" {
		e := Malformed(table, "empty identifier")
		e.Column = column
		e.Row = row
		return e
	}
	if first, dup := seen[id]; dup {
		e := Malformed(table, fmt.Sprintf("duplicate identifier %q (first seen at row %d)", id, first))
		e.Column = column
		e.Row = row
		return e
	}
	seen[id] = row
	return nil
}
