package record

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeLine_Escaping(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  string
	}{
		{"plain", "dress", `"dress"` + "\n"},
		{"comma", "a,b", `"a,b"` + "\n"},
		{"quote", `say "hi"`, `"say ""hi"""` + "\n"},
		{"newline", "a\nb", `"a\nb"` + "\n"},
		{"carriage return", "a\r\nb", `"a\r\nb"` + "\n"},
		{"backslash", `a\nb`, `"a\\nb"` + "\n"},
		{"empty", "", `""` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeLine([]string{tt.field}))
		})
	}
}

func TestParseLog_ReversesEscaping(t *testing.T) {
	fields := []string{"a\nb", `a\nb`, `say "hi"`, "x,y", "a\r\n", `trailing\`}
	rec := Record{
		ExecutionID:  fields[0],
		TestCaseID:   fields[1],
		Browser:      fields[2],
		Environment:  fields[3],
		ErrorMessage: fields[4],
		Notes:        fields[5],
		Status:       StatusPass,
	}
	data := EncodeLine(Header) + EncodeLine(rec.Fields())

	got, err := ParseLog([]byte(data))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec, got[0])
}

func TestOpenCSVLog_HeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "executions.csv")
	ctx := context.Background()

	log, err := OpenCSVLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(ctx, Record{ExecutionID: "EXEC_1", Status: StatusPass}))
	require.NoError(t, log.Close())

	// Reopening appends without a second header.
	log, err = OpenCSVLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Append(ctx, Record{ExecutionID: "EXEC_2", Status: StatusFail}))
	require.NoError(t, log.Close())

	records, err := ReadLog(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "EXEC_1", records[0].ExecutionID)
	assert.Equal(t, "EXEC_2", records[1].ExecutionID)
}

func TestOpenCSVLog_TerminatesUnfinishedLastLine(t *testing.T) {
	first := Record{ExecutionID: "EXEC_1_TC001", TestCaseID: "TC001", Status: StatusPass, Notes: "ok"}
	tests := []struct {
		name    string
		content string
		wantIDs []string
	}{
		{
			name:    "row without trailing newline",
			content: EncodeLine(Header) + strings.TrimSuffix(EncodeLine(first.Fields()), "\n"),
			wantIDs: []string{"EXEC_1_TC001", "EXEC_2_TC002"},
		},
		{
			name:    "header without trailing newline",
			content: strings.TrimSuffix(EncodeLine(Header), "\n"),
			wantIDs: []string{"EXEC_2_TC002"},
		},
		{
			name:    "terminated row",
			content: EncodeLine(Header) + EncodeLine(first.Fields()),
			wantIDs: []string{"EXEC_1_TC001", "EXEC_2_TC002"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "Test_Execution_Results.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			log, err := OpenCSVLog(path)
			require.NoError(t, err)
			require.NoError(t, log.Append(context.Background(),
				Record{ExecutionID: "EXEC_2_TC002", TestCaseID: "TC002", Status: StatusFail}))
			require.NoError(t, log.Close())

			records, err := ReadLog(path)
			require.NoError(t, err)
			ids := make([]string, 0, len(records))
			for _, r := range records {
				ids = append(ids, r.ExecutionID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			if len(records) == 2 {
				assert.Equal(t, "ok", records[0].Notes)
			}

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.NotContains(t, string(data), "\n\n")
		})
	}
}

func TestCSVLog_AppendAfterClose(t *testing.T) {
	log, err := OpenCSVLog(filepath.Join(t.TempDir(), "executions.csv"))
	require.NoError(t, err)
	require.NoError(t, log.Close())
	require.NoError(t, log.Close())

	err = log.Append(context.Background(), Record{ExecutionID: "EXEC_1"})
	assert.ErrorContains(t, err, "closed")
}

func TestCSVLog_CanceledContext(t *testing.T) {
	log, err := OpenCSVLog(filepath.Join(t.TempDir(), "executions.csv"))
	require.NoError(t, err)
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, log.Append(ctx, Record{}), context.Canceled)
}

func TestReadLog_Missing(t *testing.T) {
	records, err := ReadLog(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)
}

func TestReadLog_UnknownStatusNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "executions.csv")
	data := "Execution ID,Status\nEXEC_1,PASS\nEXEC_2,skipped\nEXEC_3,\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	records, err := ReadLog(path)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, StatusPass, records[0].Status)
	assert.Equal(t, StatusUnknown, records[1].Status)
	assert.Equal(t, StatusUnknown, records[2].Status)
}
