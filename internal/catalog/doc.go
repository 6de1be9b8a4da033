// Package catalog loads the hand-edited test management tables.
//
// Three tables make up a catalog:
//
//	Test_Scenarios.csv  grouping labels for related cases
//	Test_Cases.csv      cases with pipe-delimited step text
//	Test_Data.csv       parameter sets feeding one or more cases
//
// Tables are read through the TabularStore interface; CSVStore is the
// file-backed implementation. The Loader never caches: every call re-reads
// the source so edits made between runs are always visible.
//
// # Errors
//
// Two error codes are fatal to a run and are reported before any test
// executes:
//
//   - CATALOG_UNAVAILABLE: a table could not be read
//   - CATALOG_MALFORMED: a required column is missing, an ID is duplicated,
//     or a case carries step text that cannot be compiled
//
// Use IsUnavailable and IsMalformed to classify wrapped errors.
package catalog
