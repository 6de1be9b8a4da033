// Package step compiles free-text test steps into intents and executes them
// against an application.
//
// # Compilation
//
// A case's step column is pipe-delimited natural language. Parse splits it
// and matches each description against a closed vocabulary, checked in a
// fixed priority order; the first matching pattern decides the intent:
//
//	"Navigate to homepage"                               Navigate
//	"Enter" and "search box"                             Search
//	"Verify search results are displayed"                VerifyResults
//	"Count the number of search results"                 CountResults
//	"Select any item from results"                       SelectResult
//	"Click on add to cart"                               AddToCart
//	"Verify appropriate handling of special characters"  VerifySpecialChars
//	"Verify error message text"                          VerifyErrorMessage
//
// In Strict mode a description that matches nothing is a CATALOG_MALFORMED
// error, reported when the catalog is loaded rather than when the test runs.
// Lenient mode keeps such descriptions as Unrecognized steps which the
// interpreter skips.
//
// # Execution
//
// Interpreter.Execute runs compiled steps sequentially against an AppActions
// implementation. Every action and query gets its own timeout. The first
// failed assertion or unavailable action stops the sequence:
//
//   - *AssertionError: a post-condition did not hold
//   - *ActionError: the application could not perform the action in time
package step
