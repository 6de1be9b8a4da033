package materialize

import (
	"fmt"

	"github.com/roach88/casegrid/internal/catalog"
	"github.com/roach88/casegrid/internal/param"
	"github.com/roach88/casegrid/internal/step"
)

// Environment is one column of the run matrix.
type Environment struct {
	Browser string
	Name    string
}

func (e Environment) String() string {
	return e.Name + "/" + e.Browser
}

// Matrix crosses browsers with a single environment name, preserving
// browser order.
func Matrix(browsers []string, environment string) []Environment {
	envs := make([]Environment, 0, len(browsers))
	for _, b := range browsers {
		envs = append(envs, Environment{Browser: b, Name: environment})
	}
	return envs
}

// Unit is one (case, value, environment) combination scheduled to run once.
type Unit struct {
	Case            catalog.TestCase
	Value           param.Value
	ExpectedMessage string
	Env             Environment
	Steps           []step.Step
}

// Name is the display name: "<case name> - <value>".
func (u Unit) Name() string {
	return DisplayName(u.Case.Name, u.Value)
}

// ID identifies the unit within a run: "<case id>/<value>/<browser>".
func (u Unit) ID() string {
	return fmt.Sprintf("%s/%s/%s", u.Case.ID, u.Value.String(), u.Env.Browser)
}

// DisplayName derives a unit name from a case name and value.
func DisplayName(caseName string, v param.Value) string {
	return caseName + " - " + v.String()
}

// DisplayLabel is Name followed by the browser: "<name> [<browser>]".
func (u Unit) DisplayLabel() string {
	return fmt.Sprintf("%s [%s]", u.Name(), u.Env.Browser)
}
