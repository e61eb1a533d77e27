// Copyright 2025 EURECOM
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Contributors:
//   Giulio CAROTA
//   Thomas DU
//   Adlen KSENTINI

package simulator

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/trafficgen"
)

const (
	defaultOamPort        = 8081
	defaultMetricsPort    = 9090
	defaultReportInterval = time.Second
)

type AppConfig struct {
	OamPort        uint16        `yaml:"oamPort"`
	MetricsPort    uint16        `yaml:"metricsPort"`
	UseH2C         bool          `yaml:"useH2C"`
	LogVerbosity   int           `yaml:"logVerbosity"`
	Development    bool          `yaml:"development"`
	ReportInterval time.Duration `yaml:"reportInterval"`
	InitOnStartup  bool          `yaml:"initOnStartup"`
	/* Custom configuration parameters */
	Experiment *ExperimentConfig `yaml:"experiment"`
}

type ExperimentConfig struct {
	Sources   []trafficgen.ProfileConfig `yaml:"sources" json:"sources"`
	Autopilot AutopilotConfig            `yaml:"autopilot" json:"autopilot"`
}

// AutopilotConfig attaches a Markov controller to every source of the
// experiment.
type AutopilotConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	StepInterval time.Duration `yaml:"stepInterval" json:"stepInterval"`
	ProbeKbps    float64       `yaml:"probeKbps" json:"probeKbps"`
	Seed         uint64        `yaml:"seed" json:"seed"`
}

func InitConfig(configPath string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}
	return ParseConfig(yamlFile)
}

// ParseConfig decodes a yaml configuration and fills in the defaults.
func ParseConfig(data []byte) (*AppConfig, error) {
	cfg := AppConfig{
		OamPort:        defaultOamPort,
		MetricsPort:    defaultMetricsPort,
		LogVerbosity:   logging.DEFAULT,
		ReportInterval: defaultReportInterval,
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *AppConfig) Validate() error {
	if cfg.ReportInterval <= 0 {
		return fmt.Errorf("reportInterval must be positive, got %s", cfg.ReportInterval)
	}
	if cfg.LogVerbosity < 0 {
		return fmt.Errorf("logVerbosity must not be negative, got %d", cfg.LogVerbosity)
	}
	if cfg.InitOnStartup && cfg.Experiment == nil {
		return fmt.Errorf("when initializing from startup, experiment must be defined in config file")
	}
	if cfg.Experiment != nil {
		if err := cfg.Experiment.Validate(); err != nil {
			return fmt.Errorf("invalid experiment: %w", err)
		}
	}
	return nil
}

// Validate reports every problem of the experiment at once.
func (cfg *ExperimentConfig) Validate() error {
	var errs error
	if len(cfg.Sources) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("no source configured"))
	}

	names := make(map[string]struct{}, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if src.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("source #%d has no name", i))
			continue
		}
		if _, dup := names[src.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("duplicate source name %q", src.Name))
		}
		names[src.Name] = struct{}{}

		if _, err := trafficgen.NewPolicy(src); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if cfg.Autopilot.Enabled {
		if cfg.Autopilot.StepInterval <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("autopilot stepInterval must be positive"))
		}
		if cfg.Autopilot.ProbeKbps <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("autopilot probeKbps must be positive"))
		}
	}
	return errs
}

func (cfg *AppConfig) Dumps() string {
	d, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Sprintf("<unprintable config: %v>", err)
	}
	return string(d)
}
