// Package harness runs materialized units against application sessions.
//
// Each unit runs inside a boundary that owns its session, its timeout and
// its execution record:
//
//  1. open a Session for the unit's environment
//  2. execute the unit's steps with the shared Interpreter
//  3. on failure, capture a screenshot named
//     failure-<execution id>-<browser>-<timestamp>
//  4. record PASS or FAIL through the Recorder
//  5. close the session
//
// A failing unit never stops its siblings. Pool bounds how many units run
// at once; results come back in unit order regardless of completion order.
//
// Every run gets a UUIDv7 run id that tags the SQLite execution mirror when
// a store is configured.
package harness
