package step

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/casegrid/internal/catalog"
)

// Kind identifies a step intent.
type Kind int

const (
	Unrecognized Kind = iota
	Navigate
	Search
	VerifyResults
	CountResults
	SelectResult
	AddToCart
	VerifySpecialChars
	VerifyErrorMessage
)

var kindNames = map[Kind]string{
	Unrecognized:       "unrecognized",
	Navigate:           "navigate",
	Search:             "search",
	VerifyResults:      "verify_results",
	CountResults:       "count_results",
	SelectResult:       "select_result",
	AddToCart:          "add_to_cart",
	VerifySpecialChars: "verify_special_chars",
	VerifyErrorMessage: "verify_error_message",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Step is one compiled step: the intent plus the authored text it came from.
type Step struct {
	Kind Kind
	Text string
}

func (s Step) String() string {
	return s.Text
}

// Mode controls how unmatched step text is handled.
type Mode int

const (
	// Strict rejects step text that matches no known intent.
	Strict Mode = iota
	// Lenient compiles unmatched text to Unrecognized steps.
	Lenient
)

// pattern maps substrings to an intent. All substrings must be present.
type pattern struct {
	all  []string
	kind Kind
}

// patterns are tested in order; the first match wins.
var patterns = []pattern{
	{all: []string{"Navigate to homepage"}, kind: Navigate},
	{all: []string{"Enter", "search box"}, kind: Search},
	{all: []string{"Verify search results are displayed"}, kind: VerifyResults},
	{all: []string{"Count the number of search results"}, kind: CountResults},
	{all: []string{"Select any item from results"}, kind: SelectResult},
	{all: []string{"Click on add to cart"}, kind: AddToCart},
	{all: []string{"Verify appropriate handling of special characters"}, kind: VerifySpecialChars},
	{all: []string{"Verify error message text"}, kind: VerifyErrorMessage},
}

// Classify returns the intent for one step description.
func Classify(text string) Kind {
	text = norm.NFC.String(text)
	for _, p := range patterns {
		if containsAll(text, p.all) {
			return p.kind
		}
	}
	return Unrecognized
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// Parse compiles a pipe-delimited step sequence.
// Empty segments are dropped. A sequence with no steps, or with unmatched
// text in Strict mode, is a CATALOG_MALFORMED error.
func Parse(text string, mode Mode) ([]Step, error) {
	descriptions := catalog.SplitList(norm.NFC.String(text), '|')
	if len(descriptions) == 0 {
		return nil, catalog.Malformed(catalog.TableCases, "step sequence is empty")
	}

	steps := make([]Step, 0, len(descriptions))
	for i, desc := range descriptions {
		kind := Classify(desc)
		if kind == Unrecognized && mode == Strict {
			e := catalog.Malformed(catalog.TableCases, fmt.Sprintf("step %d %q matches no known step", i+1, desc))
			e.Column = catalog.ColCaseSteps
			return nil, e
		}
		steps = append(steps, Step{Kind: kind, Text: desc})
	}
	return steps, nil
}

// ParseCase compiles the steps of tc, naming the case in any error.
func ParseCase(tc catalog.TestCase, mode Mode) ([]Step, error) {
	steps, err := Parse(tc.StepText, mode)
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", tc.ID, err)
	}
	return steps, nil
}
