package param

import "strings"

// Value is a sealed union: only Scalar and Record implement it.
type Value interface {
	// String returns the textual form used for searches, assertions and
	// unit names. A Record renders as "key:value".
	String() string

	paramValue()
}

// Scalar is a plain string value.
type Scalar string

func (Scalar) paramValue() {}

func (s Scalar) String() string { return string(s) }

// Record is a single-entry mapping parsed from a "key:value" token.
type Record struct {
	Key   string
	Value string
}

func (Record) paramValue() {}

func (r Record) String() string { return r.Key + ":" + r.Value }

// ParseValue interprets one token. Tokens containing ':' become a Record
// split at the first ':'; anything else is a trimmed Scalar.
func ParseValue(token string) Value {
	if key, val, ok := strings.Cut(token, ":"); ok {
		return Record{Key: strings.TrimSpace(key), Value: strings.TrimSpace(val)}
	}
	return Scalar(strings.TrimSpace(token))
}

// ParseValues splits a raw pipe-delimited value list.
// Every '|'-separated token yields exactly one value, in order.
// A blank list yields no values.
func ParseValues(raw string) []Value {
	if strings.TrimSpace(raw) == "" {
		return []Value{}
	}
	tokens := strings.Split(raw, "|")
	values := make([]Value, 0, len(tokens))
	for _, tok := range tokens {
		values = append(values, ParseValue(tok))
	}
	return values
}

// Strings returns the textual form of each value.
func Strings(values []Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}
