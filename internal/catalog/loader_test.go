package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoader(t *testing.T) *Loader {
	t.Helper()
	return NewLoader(NewCSVStore(filepath.Join("testdata", "catalog")), nil)
}

// writeTable writes a CSV table into dir and returns dir.
func writeTable(t *testing.T, dir, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".csv"), []byte(content), 0644))
	return dir
}

func TestLoadScenarios(t *testing.T) {
	scenarios, err := testLoader(t).LoadScenarios(context.Background())
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	assert.Equal(t, "TS001", scenarios[0].ID)
	assert.Equal(t, "Product Search", scenarios[0].Name)
	assert.Equal(t, []string{"search", "smoke"}, scenarios[0].Tags)
	assert.Equal(t, "TS002", scenarios[1].ID)
}

func TestLoadCases(t *testing.T) {
	cases, err := testLoader(t).LoadCases(context.Background())
	require.NoError(t, err)
	require.Len(t, cases, 4, "blank lines must be skipped")

	tc := cases[0]
	assert.Equal(t, "TC001", tc.ID)
	assert.Equal(t, "TS001", tc.ScenarioID)
	assert.Equal(t, "TD001", tc.DataSetID)
	assert.True(t, tc.Automated())
	assert.Equal(t, []string{
		"Navigate to homepage",
		"Enter product name in search box",
		"Verify search results are displayed",
	}, tc.Steps())

	assert.False(t, cases[3].Automated())
}

func TestLoadParameterSets(t *testing.T) {
	sets, err := testLoader(t).LoadParameterSets(context.Background())
	require.NoError(t, err)
	require.Len(t, sets, 3)

	assert.Equal(t, "TD001", sets[0].ID)
	assert.Equal(t, []string{"TC001", "TC004"}, sets[0].CaseIDs)
	assert.Equal(t, "dress|shirt", sets[0].Values)
	assert.Empty(t, sets[0].ExpectedMessage)
}

func TestParameterSetLookup(t *testing.T) {
	l := testLoader(t)
	ctx := context.Background()

	set, ok, err := l.ParameterSet(ctx, "TD003")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "product:dress", set.Values)

	_, ok, err = l.ParameterSet(ctx, "TD999")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCasesByScenario(t *testing.T) {
	cases, err := testLoader(t).CasesByScenario(context.Background(), "TS002")
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "TC003", cases[0].ID)
}

func TestLoad_Idempotent(t *testing.T) {
	l := testLoader(t)
	ctx := context.Background()

	first, err := l.LoadCases(ctx)
	require.NoError(t, err)
	second, err := l.LoadCases(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	sets1, err := l.LoadParameterSets(ctx)
	require.NoError(t, err)
	sets2, err := l.LoadParameterSets(ctx)
	require.NoError(t, err)
	assert.Equal(t, sets1, sets2)
}

func TestLoad_RereadsSource(t *testing.T) {
	dir := t.TempDir()
	writeTable(t, dir, TableScenarios, "Test Scenario ID,Test Scenario Name\nTS1,First\n")
	l := NewLoader(NewCSVStore(dir), nil)

	scenarios, err := l.LoadScenarios(context.Background())
	require.NoError(t, err)
	require.Len(t, scenarios, 1)

	writeTable(t, dir, TableScenarios, "Test Scenario ID,Test Scenario Name\nTS1,First\nTS2,Second\n")
	scenarios, err = l.LoadScenarios(context.Background())
	require.NoError(t, err)
	assert.Len(t, scenarios, 2)
}

func TestLoad_Unavailable(t *testing.T) {
	l := NewLoader(NewCSVStore(filepath.Join(t.TempDir(), "missing")), nil)

	_, err := l.LoadCases(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.False(t, IsMalformed(err))
	assert.Contains(t, err.Error(), "CATALOG_UNAVAILABLE")
}

func TestLoad_MissingColumn(t *testing.T) {
	dir := writeTable(t, t.TempDir(), TableParameterSets, "Data Set ID,Data Set Name\nTD1,Only a name\n")
	l := NewLoader(NewCSVStore(dir), nil)

	_, err := l.LoadParameterSets(context.Background())
	require.Error(t, err)
	assert.True(t, IsMalformed(err))

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ColDataValues, ce.Column)
	assert.Equal(t, TableParameterSets, ce.Table)
}

func TestLoad_DuplicateID(t *testing.T) {
	dir := writeTable(t, t.TempDir(), TableScenarios, "Test Scenario ID,Test Scenario Name\nTS1,A\nTS1,B\n")
	l := NewLoader(NewCSVStore(dir), nil)

	_, err := l.LoadScenarios(context.Background())
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
	assert.Contains(t, err.Error(), "duplicate identifier")
}

func TestLoad_EmptyTable(t *testing.T) {
	dir := writeTable(t, t.TempDir(), TableScenarios, "")
	l := NewLoader(NewCSVStore(dir), nil)

	_, err := l.LoadScenarios(context.Background())
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testLoader(t).LoadScenarios(ctx)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}
