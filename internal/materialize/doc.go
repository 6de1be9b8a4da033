// Package materialize expands test cases into executable units.
//
// Every automated case is crossed with its resolved parameter values and
// with the run matrix of environments:
//
//	units = for case in automated cases
//	          for value in resolve(case.DataSetID)
//	            for env in matrix
//	              Unit{case, value, env}
//
// Ordering is deterministic (catalog order, then value order, then matrix
// order) so unit names are stable and diff-friendly across runs. Step text
// is compiled here, before anything executes, so an uncompilable catalog
// aborts the run instead of failing individual tests.
package materialize
