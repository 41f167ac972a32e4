// Package automation runs scripted sequences of headless cloth runs
// described in YAML.
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/clothsim/internal/config"
	"github.com/san-kum/clothsim/internal/experiment"
	"github.com/san-kum/clothsim/internal/optim"
)

// Scenario defines a scripted simulation sequence.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run of a scenario. Params use the names accepted by
// optim.Apply.
type ScenarioStep struct {
	Name   string             `yaml:"name"`
	Preset string             `yaml:"preset"`
	Frames int                `yaml:"frames"`
	Params map[string]float64 `yaml:"params"`
}

// StepResult pairs a step with the configuration it ran and its result.
type StepResult struct {
	Step   ScenarioStep
	Config *config.Config
	Result *experiment.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("automation: parse scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, errors.New("automation: scenario has no steps")
	}
	for i := range sc.Steps {
		if sc.Steps[i].Name == "" {
			sc.Steps[i].Name = fmt.Sprintf("step%d", i+1)
		}
	}
	return &sc, nil
}

// Config resolves the configuration of one step.
func (s ScenarioStep) Config() (*config.Config, error) {
	preset := s.Preset
	if preset == "" {
		preset = "drape"
	}
	cfg, err := config.GetPreset(preset)
	if err != nil {
		return nil, err
	}
	if s.Frames > 0 {
		cfg.Simulation.Frames = s.Frames
	}
	if err := optim.Apply(cfg, s.Params); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// RunScenario executes the steps in order on the CPU backend. done, if not
// nil, is called after each step and may abort the scenario by returning an
// error.
func RunScenario(ctx context.Context, sc *Scenario, done func(StepResult) error, log *zap.Logger) ([]StepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	results := make([]StepResult, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}
		log.Info("scenario step", zap.String("scenario", sc.Name), zap.Int("step", i+1), zap.String("name", step.Name))

		result, err := optim.CPURunner(cfg, log)(ctx, nil)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}

		sr := StepResult{Step: step, Config: cfg, Result: result}
		results = append(results, sr)
		if done != nil {
			if err := done(sr); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}
