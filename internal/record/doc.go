// Package record persists one execution record per executed unit.
//
// The Recorder fills defaults for unset fields and appends the completed
// record to every configured Sink. Appends are serialized by a single mutex:
// this is the one mandatory mutual-exclusion point of a run, since units
// execute concurrently and share one log.
//
// # Log format
//
// CSVLog writes the execution table used by the test management sheets:
//
//	"Execution ID","Test Case ID","Browser",...,"Notes"
//
// Every field is double-quoted with embedded quotes doubled. Backslashes,
// carriage returns and newlines are written as \\, \r and \n so each record
// occupies exactly one line. ReadLog reverses the escaping.
//
// Records are never rewritten or reordered once appended.
package record
