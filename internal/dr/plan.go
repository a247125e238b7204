// VCarpool DR - Backup and Disaster Recovery for the VCarpool Platform
// Copyright 2026 Ved Prakash (vedprakash-m)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vedprakash-m/vcarpool-dr

package dr

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vedprakash-m/vcarpool-dr/internal/notify"
	"github.com/vedprakash-m/vcarpool-dr/internal/validation"
)

// Duration wraps time.Duration so plan files carry human-readable forms
// ("4h", "30m") in both YAML and JSON.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler. JSON plan files pass through
// here too since JSON is a YAML subset.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"4h\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON renders the duration in its string form for API responses.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Plan is a disaster-recovery playbook. Loaded once at startup and treated
// as immutable afterwards.
type Plan struct {
	// Name identifies the plan in logs, notifications and events.
	Name string `yaml:"name" json:"name" validate:"required"`

	Description string `yaml:"description" json:"description,omitempty"`

	// RTO is the recovery time objective. Execution exceeding it is
	// flagged on the result.
	RTO Duration `yaml:"rto" json:"rto" validate:"required"`

	// RPO is the recovery point objective, carried for operator
	// visibility. The backup schedule is what actually satisfies it.
	RPO Duration `yaml:"rpo" json:"rpo" validate:"required"`

	// CriticalComponents names the systems this plan is written to bring
	// back. Informational.
	CriticalComponents []string `yaml:"critical_components" json:"critical_components,omitempty"`

	// Steps run in exactly this order.
	Steps []RecoveryStep `yaml:"recovery_steps" json:"recovery_steps" validate:"required,min=1,dive"`

	// Contacts are alerted when execution starts and again with the
	// outcome.
	Contacts []notify.Contact `yaml:"contacts" json:"contacts" validate:"dive"`
}

// RecoveryStep is one entry in the playbook.
type RecoveryStep struct {
	// ID uniquely names the step within the plan.
	ID string `yaml:"id" json:"id" validate:"required"`

	Description string `yaml:"description" json:"description,omitempty"`

	// Automated steps run their Script through the command runner.
	// Manual steps log a warning and execution proceeds.
	Automated bool `yaml:"automated" json:"automated"`

	// Script is a command line for automated steps, split on whitespace
	// into binary and arguments. No shell interpretation happens.
	Script string `yaml:"script,omitempty" json:"script,omitempty"`

	// EstimatedDuration is the operator's estimate, informational.
	EstimatedDuration Duration `yaml:"estimated_duration,omitempty" json:"estimated_duration,omitempty"`

	// DependsOn lists prerequisite step IDs. Advisory metadata only:
	// execution order is the configured array order regardless.
	DependsOn []string `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
}

// LoadPlan reads and validates a plan file. The file may be YAML or JSON.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parsing plan file %s: %w", filepath.Base(path), err)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recovery plan %s: %w", filepath.Base(path), err)
	}
	return &plan, nil
}

// Validate checks structural soundness: required fields, unique step IDs,
// and DependsOn references that resolve. Dependencies stay advisory at
// execution time; validating them here catches plan typos at startup
// instead of mid-recovery.
func (p *Plan) Validate() error {
	if serr := validation.ValidateStruct(p); serr != nil {
		return serr
	}

	ids := make(map[string]bool, len(p.Steps))
	for _, step := range p.Steps {
		if ids[step.ID] {
			return fmt.Errorf("duplicate step id %q", step.ID)
		}
		ids[step.ID] = true
	}
	for _, step := range p.Steps {
		for _, dep := range step.DependsOn {
			if !ids[dep] {
				return fmt.Errorf("step %q depends on unknown step %q", step.ID, dep)
			}
		}
	}
	return nil
}

// AutomatedSteps counts steps that would run a script.
func (p *Plan) AutomatedSteps() int {
	n := 0
	for _, step := range p.Steps {
		if step.Automated && step.Script != "" {
			n++
		}
	}
	return n
}
