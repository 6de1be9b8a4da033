package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultBaseURL           = "http://www.automationpractice.pl"
	DefaultEnvironment       = "staging"
	DefaultExecutor          = "Automated Test"
	DefaultCatalogDir        = "test-management"
	DefaultResultsFile       = "Test_Execution_Results.csv"
	DefaultArtifactsDir      = "screenshots"
	DefaultActionTimeout     = 10 * time.Second
	DefaultNavigationTimeout = 30 * time.Second
	DefaultUnitTimeout       = 2 * time.Minute
	DefaultWorkers           = 2
)

// Config is the resolved run configuration.
type Config struct {
	BaseURL     string
	Environment string
	Executor    string
	Browsers    []string

	CatalogDir string
	// ResultsCSV defaults to <CatalogDir>/Test_Execution_Results.csv.
	ResultsCSV string
	// ResultsDB enables the SQLite mirror when set.
	ResultsDB    string
	ArtifactsDir string

	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
	UnitTimeout       time.Duration

	Workers      int
	Headless     bool
	LenientSteps bool

	// RequireResultCount makes "Verify search results are displayed" also
	// assert a positive result count.
	RequireResultCount bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Environment:       DefaultEnvironment,
		Executor:          DefaultExecutor,
		Browsers:          []string{"chromium"},
		CatalogDir:        DefaultCatalogDir,
		ArtifactsDir:      DefaultArtifactsDir,
		ActionTimeout:     DefaultActionTimeout,
		NavigationTimeout: DefaultNavigationTimeout,
		UnitTimeout:       DefaultUnitTimeout,
		Workers:           DefaultWorkers,
		Headless:          true,
	}
}

// ResultsPath returns ResultsCSV, or the default log inside CatalogDir.
func (c Config) ResultsPath() string {
	if c.ResultsCSV != "" {
		return c.ResultsCSV
	}
	return filepath.Join(c.CatalogDir, DefaultResultsFile)
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("base_url must not be empty"))
	}
	if len(c.Browsers) == 0 {
		errs = append(errs, errors.New("browsers must list at least one browser"))
	}
	for i, b := range c.Browsers {
		if strings.TrimSpace(b) == "" {
			errs = append(errs, fmt.Errorf("browsers[%d] is empty", i))
		}
	}
	if c.CatalogDir == "" {
		errs = append(errs, errors.New("catalog_dir must not be empty"))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	for name, d := range map[string]time.Duration{
		"action_timeout":     c.ActionTimeout,
		"navigation_timeout": c.NavigationTimeout,
		"unit_timeout":       c.UnitTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// file is the on-disk shape. Unset fields keep their current values.
type file struct {
	BaseURL           string   `yaml:"base_url" json:"base_url"`
	Environment       string   `yaml:"environment" json:"environment"`
	Executor          string   `yaml:"executor" json:"executor"`
	Browsers          []string `yaml:"browsers" json:"browsers"`
	CatalogDir        string   `yaml:"catalog_dir" json:"catalog_dir"`
	ResultsCSV        string   `yaml:"results_csv" json:"results_csv"`
	ResultsDB         string   `yaml:"results_db" json:"results_db"`
	ArtifactsDir      string   `yaml:"artifacts_dir" json:"artifacts_dir"`
	ActionTimeout     string   `yaml:"action_timeout" json:"action_timeout"`
	NavigationTimeout string   `yaml:"navigation_timeout" json:"navigation_timeout"`
	UnitTimeout       string   `yaml:"unit_timeout" json:"unit_timeout"`
	Workers           int      `yaml:"workers" json:"workers"`
	Headless          *bool    `yaml:"headless" json:"headless"`
	LenientSteps      *bool    `yaml:"lenient_steps" json:"lenient_steps"`
	RequireCount      *bool    `yaml:"require_result_count" json:"require_result_count"`
}

// Load reads path over Default. ".yaml" and ".yml" files are decoded
// strictly; ".cue" files are evaluated with CUE.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var f file
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		f, err = decodeYAML(data)
	case ".cue":
		f, err = decodeCUE(path, data)
	default:
		return Config{}, fmt.Errorf("unsupported config format %q (want .yaml, .yml or .cue)", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	cfg := Default()
	if err := f.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeYAML(data []byte) (file, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		// An empty document decodes to io.EOF.
		if len(bytes.TrimSpace(data)) == 0 {
			return file{}, nil
		}
		return file{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return f, nil
}

func decodeCUE(path string, data []byte) (file, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return file{}, fmt.Errorf("compiling CUE: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return file{}, fmt.Errorf("validating CUE: %w", err)
	}

	iter, err := v.Fields()
	if err != nil {
		return file{}, fmt.Errorf("iterating CUE fields: %w", err)
	}
	for iter.Next() {
		if !knownKeys[iter.Selector().String()] {
			return file{}, fmt.Errorf("unknown field %q", iter.Selector().String())
		}
	}

	var f file
	if err := v.Decode(&f); err != nil {
		return file{}, fmt.Errorf("decoding CUE: %w", err)
	}
	return f, nil
}

var knownKeys = map[string]bool{
	"base_url": true, "environment": true, "executor": true, "browsers": true,
	"catalog_dir": true, "results_csv": true, "results_db": true, "artifacts_dir": true,
	"action_timeout": true, "navigation_timeout": true, "unit_timeout": true,
	"workers": true, "headless": true, "lenient_steps": true, "require_result_count": true,
}

func (f file) apply(c *Config) error {
	setString(&c.BaseURL, f.BaseURL)
	setString(&c.Environment, f.Environment)
	setString(&c.Executor, f.Executor)
	setString(&c.CatalogDir, f.CatalogDir)
	setString(&c.ResultsCSV, f.ResultsCSV)
	setString(&c.ResultsDB, f.ResultsDB)
	setString(&c.ArtifactsDir, f.ArtifactsDir)
	if f.Browsers != nil {
		c.Browsers = f.Browsers
	}
	if f.Workers != 0 {
		c.Workers = f.Workers
	}
	if f.Headless != nil {
		c.Headless = *f.Headless
	}
	if f.LenientSteps != nil {
		c.LenientSteps = *f.LenientSteps
	}
	if f.RequireCount != nil {
		c.RequireResultCount = *f.RequireCount
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"action_timeout", f.ActionTimeout, &c.ActionTimeout},
		{"navigation_timeout", f.NavigationTimeout, &c.NavigationTimeout},
		{"unit_timeout", f.UnitTimeout, &c.UnitTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
