// Package store mirrors execution records into SQLite.
//
// The CSV execution log is the canonical output of a run; the store keeps a
// queryable copy tagged with the run that produced each row, plus the
// per-step events the interpreter reports while a unit executes.
//
// Tables:
//   - runs: one row per harness run (UUIDv7 id)
//   - executions: the execution record columns plus run_id
//   - step_events: one row per executed step, keyed by execution id and index
//
// All queries order by seq, the insertion order. Rows are never updated.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - a single open connection, so writes from concurrent units serialize
package store
