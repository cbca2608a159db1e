// Scripted anomaly scenarios layered over the stochastic event generator.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fsa-anomaly-lab/internal/fsa"
)

// Trigger event types understood by the runtime.
const (
	TriggerPhaseTicks     = "phase_ticks"
	TriggerPhaseAnomalies = "phase_anomalies"
)

// ErrInvalid is returned for scenarios that parse but cannot run.
var ErrInvalid = errors.New("invalid scenario")

// Scenario defines an anomaly script with ordered phases and an overall description.
type Scenario struct {
	Name        string  `yaml:"name,omitempty"`
	Description string  `yaml:"description,omitempty"`
	Phases      []Phase `yaml:"phases"`
}

// Phase describes a stage of the script: events forced on nodes and triggers for transitions.
type Phase struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Forced      []Forced  `yaml:"forced,omitempty"`
	Triggers    []Trigger `yaml:"triggers,omitempty"`
}

// Forced pins the event a node samples while the phase is active. An empty
// Node applies to every node. P in (0,1) forces the event only on that share of draws.
type Forced struct {
	Event string  `yaml:"event"`
	Node  string  `yaml:"node,omitempty"`
	P     float64 `yaml:"p,omitempty"`
}

// Trigger moves the scenario to another phase once a counter reaches Value.
type Trigger struct {
	Event string `yaml:"event"`
	Value int    `yaml:"value"`
	Next  string `yaml:"next"`
}

// Event represents a runtime occurrence that may advance the scenario.
type Event struct {
	Type  string
	Value int
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Lookup returns the built-in arc with the given name, or loads nameOrPath from disk.
func Lookup(nameOrPath string) (*Scenario, error) {
	if arc, ok := BuiltIn()[nameOrPath]; ok {
		return &arc, nil
	}
	return Load(nameOrPath)
}

// Validate checks phase names, event names and trigger targets.
func (s *Scenario) Validate() error {
	if len(s.Phases) == 0 {
		return fmt.Errorf("%w: no phases", ErrInvalid)
	}
	names := make(map[string]struct{}, len(s.Phases))
	for _, p := range s.Phases {
		if p.Name == "" {
			return fmt.Errorf("%w: phase without name", ErrInvalid)
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("%w: duplicate phase %q", ErrInvalid, p.Name)
		}
		names[p.Name] = struct{}{}
	}
	for _, p := range s.Phases {
		for _, f := range p.Forced {
			if _, err := fsa.ParseEvent(f.Event); err != nil {
				return fmt.Errorf("%w: phase %s: %v", ErrInvalid, p.Name, err)
			}
			if f.P < 0 || f.P > 1 {
				return fmt.Errorf("%w: phase %s: p must be within [0,1]", ErrInvalid, p.Name)
			}
		}
		for _, tr := range p.Triggers {
			switch tr.Event {
			case TriggerPhaseTicks, TriggerPhaseAnomalies:
			default:
				return fmt.Errorf("%w: phase %s: unknown trigger %q", ErrInvalid, p.Name, tr.Event)
			}
			if _, ok := names[tr.Next]; !ok {
				return fmt.Errorf("%w: phase %s: trigger targets unknown phase %q", ErrInvalid, p.Name, tr.Next)
			}
			if tr.Value < 1 {
				return fmt.Errorf("%w: phase %s: trigger value must be >= 1", ErrInvalid, p.Name)
			}
		}
	}
	return nil
}

// NextPhase returns the name of the next phase given the current phase and event.
// If no trigger matches, ok will be false.
func (s *Scenario) NextPhase(current string, ev Event) (next string, ok bool) {
	for _, p := range s.Phases {
		if p.Name != current {
			continue
		}
		for _, tr := range p.Triggers {
			if tr.Event == ev.Type && ev.Value >= tr.Value {
				return tr.Next, true
			}
		}
	}
	return "", false
}

func (s *Scenario) phaseIndex(name string) int {
	for i, p := range s.Phases {
		if p.Name == name {
			return i
		}
	}
	return -1
}
