package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Scenario defines a conformance scenario: a participant history run
// through a compiled survey, followed by assertions on the result.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name" validate:"required"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" validate:"required"`

	// Survey is the directory holding the CUE survey definition.
	// Relative paths are resolved from the scenario file.
	Survey string `yaml:"survey" validate:"required"`

	// Today fixes @TODAY and @THISYEAR (yyyy-mm-dd).
	Today string `yaml:"today,omitempty" validate:"omitempty,datetime=2006-01-02"`

	// Participant is the history the rules run over.
	Participant ParticipantFile `yaml:"participant"`

	// Start is the interview execution starts from; empty starts at the
	// first interview.
	Start string `yaml:"start,omitempty"`

	// Initialize switches to the initialization filter restricted to the
	// listed items.
	Initialize []string `yaml:"initialize,omitempty" validate:"omitempty,dive,required"`

	// Workflow is used by next and available assertions.
	// Default: the survey's main workflow.
	Workflow string `yaml:"workflow,omitempty"`

	// Assertions validate the executed participant and the firing trace.
	Assertions []Assertion `yaml:"assertions" validate:"required,min=1,dive"`
}

// Assertion validates one aspect of a scenario outcome.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type" validate:"required"`

	// Interview is the record inspected by value, unit, special, message
	// and status assertions.
	Interview string `yaml:"interview,omitempty"`

	// Item is an item key (VAR or VAR[n]).
	Item string `yaml:"item,omitempty"`

	// Rule names the message key (message) or the firing rule
	// (firing_count).
	Rule string `yaml:"rule,omitempty"`

	// Target restricts firing_count to one target.
	Target string `yaml:"target,omitempty"`

	// Expect is the expected value, unit, special value, status or next
	// interview type.
	Expect any `yaml:"expect,omitempty"`

	// Present is the expected presence of a message.
	// Default: true.
	Present *bool `yaml:"present,omitempty"`

	// Count is the expected number of firings.
	Count int `yaml:"count,omitempty"`

	// Types is the expected list of available interview types.
	Types []string `yaml:"types,omitempty"`

	// Rules is the expected first-firing order of rule names.
	Rules []string `yaml:"rules,omitempty"`
}

// Assertion type constants.
const (
	AssertValue       = "value"
	AssertUnit        = "unit"
	AssertSpecial     = "special"
	AssertMessage     = "message"
	AssertStatus      = "status"
	AssertNext        = "next"
	AssertAvailable   = "available"
	AssertFiringCount = "firing_count"
	AssertFiringOrder = "firing_order"
)

// LoadScenario reads and parses a scenario YAML file. The survey path is
// resolved relative to the file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the survey path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" for "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Survey != "" && !filepath.IsAbs(scenario.Survey) && basePath != "" {
		scenario.Survey = filepath.Join(basePath, scenario.Survey)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks struct constraints, then per-type assertion
// fields and the survey directory.
func validateScenario(s *Scenario) error {
	if err := validate.Struct(s); err != nil {
		return describe(err)
	}

	info, err := os.Stat(s.Survey)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("survey directory not found: %s", s.Survey)
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// describe turns validator field errors into one readable error.
func describe(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		field := strings.TrimPrefix(fe.Namespace(), "Scenario.")
		switch fe.Tag() {
		case "required":
			msgs[i] = fmt.Sprintf("%s is required", field)
		case "min":
			msgs[i] = fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
		case "datetime":
			msgs[i] = fmt.Sprintf("%s must be a yyyy-mm-dd date", field)
		default:
			msgs[i] = fmt.Sprintf("%s failed %s", field, fe.Tag())
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	need := func(ok bool, field string) error {
		if ok {
			return nil
		}
		return fmt.Errorf("assertions[%d]: %s is required for %s", index, field, a.Type)
	}

	switch a.Type {
	case AssertValue, AssertUnit, AssertSpecial:
		if err := need(a.Interview != "", "interview"); err != nil {
			return err
		}
		if err := need(a.Item != "", "item"); err != nil {
			return err
		}
		if _, err := ParseKey(a.Item); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertMessage:
		if err := need(a.Interview != "", "interview"); err != nil {
			return err
		}
		if err := need(a.Item != "", "item"); err != nil {
			return err
		}
		return need(a.Rule != "", "rule")
	case AssertStatus:
		if err := need(a.Interview != "", "interview"); err != nil {
			return err
		}
		return need(a.Expect != nil, "expect")
	case AssertNext:
		return need(a.Expect != nil, "expect")
	case AssertAvailable:
		return need(a.Types != nil, "types")
	case AssertFiringCount:
		if err := need(a.Rule != "", "rule"); err != nil {
			return err
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for firing_count", index)
		}
	case AssertFiringOrder:
		return need(len(a.Rules) > 0, "rules")
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
