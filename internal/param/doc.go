// Package param resolves parameter sets into concrete data values.
//
// A parameter set's value list is pipe-delimited. Each token is either a
// plain scalar or a single key:value record:
//
//	"a|b:c|d"  =>  [Scalar("a"), Record{b: c}, Scalar("d")]
//
// Value is a sealed union of Scalar and Record so callers switch on the
// variant instead of inspecting shapes at use sites. Value order follows the
// authored list and drives stable unit naming across runs.
//
// A reference to an unknown parameter set is not an error: Resolve returns
// an empty Resolution with Missing set, and the case contributes no units.
package param
