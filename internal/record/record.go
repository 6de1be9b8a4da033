package record

import (
	"strings"
	"time"
)

// Status is the outcome of one execution.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusUnknown Status = "UNKNOWN"
)

// NormalizeStatus maps anything other than PASS or FAIL to UNKNOWN.
func NormalizeStatus(s Status) Status {
	switch Status(strings.ToUpper(strings.TrimSpace(string(s)))) {
	case StatusPass:
		return StatusPass
	case StatusFail:
		return StatusFail
	default:
		return StatusUnknown
	}
}

// Column names of the execution log, in persisted order.
var Header = []string{
	"Execution ID",
	"Test Case ID",
	"Browser",
	"Environment",
	"Executed By",
	"Execution Date",
	"Start Time",
	"End Time",
	"Status",
	"Error Message",
	"Screenshot Path",
	"Video Path",
	"Execution Time (seconds)",
	"Notes",
}

// Record is one persisted execution row. All fields are in their persisted
// textual form.
type Record struct {
	ExecutionID     string `json:"execution_id"`
	TestCaseID      string `json:"test_case_id"`
	Browser         string `json:"browser"`
	Environment     string `json:"environment"`
	ExecutedBy      string `json:"executed_by"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Status          Status `json:"status"`
	ErrorMessage    string `json:"error_message,omitempty"`
	ScreenshotPath  string `json:"screenshot_path,omitempty"`
	VideoPath       string `json:"video_path,omitempty"`
	DurationSeconds string `json:"duration_seconds"`
	Notes           string `json:"notes,omitempty"`
}

// Fields returns the record's values in Header order.
func (r Record) Fields() []string {
	return []string{
		r.ExecutionID,
		r.TestCaseID,
		r.Browser,
		r.Environment,
		r.ExecutedBy,
		r.Date,
		r.StartTime,
		r.EndTime,
		string(r.Status),
		r.ErrorMessage,
		r.ScreenshotPath,
		r.VideoPath,
		r.DurationSeconds,
		r.Notes,
	}
}

// fromColumns builds a record from a column-name keyed row.
func fromColumns(row map[string]string) Record {
	return Record{
		ExecutionID:     row[Header[0]],
		TestCaseID:      row[Header[1]],
		Browser:         row[Header[2]],
		Environment:     row[Header[3]],
		ExecutedBy:      row[Header[4]],
		Date:            row[Header[5]],
		StartTime:       row[Header[6]],
		EndTime:         row[Header[7]],
		Status:          NormalizeStatus(Status(row[Header[8]])),
		ErrorMessage:    row[Header[9]],
		ScreenshotPath:  row[Header[10]],
		VideoPath:       row[Header[11]],
		DurationSeconds: row[Header[12]],
		Notes:           row[Header[13]],
	}
}

// Input describes an execution to record. Zero values are replaced by
// defaults; see Recorder.
type Input struct {
	ExecutionID    string
	TestCaseID     string
	Browser        string
	Environment    string
	ExecutedBy     string
	Start          time.Time
	End            time.Time
	Status         Status
	ErrorMessage   string
	ScreenshotPath string
	VideoPath      string
	Notes          string
}

// Date and time layouts of the persisted record.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)
