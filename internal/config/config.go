package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config captures the run settings that are not per-run CLI flags: sampler
// sizing, injection shape, prior tolerances, artifact paths, and logging.
type Config struct {
	Sampler   SamplerConfig   `yaml:"sampler"`
	Injection InjectionConfig `yaml:"injection"`
	Prior     PriorConfig     `yaml:"prior"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SamplerConfig sizes the ensemble and its schedule. Walkers and Runs hold
// the defaults that the CLI flags override.
type SamplerConfig struct {
	Walkers         int     `yaml:"walkers"`
	Runs            int     `yaml:"runs"`
	BurninTestSteps int     `yaml:"burninTestSteps"`
	UpdateInterval  int     `yaml:"updateInterval"`
	Workers         int     `yaml:"workers"`
	StretchScale    float64 `yaml:"stretchScale"`
	Seed            uint64  `yaml:"seed"`
}

// InjectionConfig shapes the synthetic dataset built from the burst triplet.
type InjectionConfig struct {
	Amp         float64 `yaml:"amp"`
	Q           float64 `yaml:"q"`
	Phase       float64 `yaml:"phase"`
	GridSamples int     `yaml:"gridSamples"`
}

// PriorConfig adjusts the eccentricity prior's Gaussian widths. Zero keeps
// the prior's own defaults.
type PriorConfig struct {
	TimeTolerance float64 `yaml:"timeTolerance"`
	FreqTolerance float64 `yaml:"freqTolerance"`
}

// OutputConfig controls where artifacts land and whether the Prometheus
// listener runs.
type OutputConfig struct {
	Dir            string `yaml:"dir"`
	MetricsAddress string `yaml:"metricsAddress"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("ECCFIT_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Sampler: SamplerConfig{
			Walkers:         500,
			Runs:            1000,
			BurninTestSteps: 30,
			UpdateInterval:  20,
			Workers:         2,
			StretchScale:    2,
		},
		Injection: InjectionConfig{
			Amp:         50,
			Q:           2,
			Phase:       0,
			GridSamples: 1000,
		},
		Output:  OutputConfig{Dir: "."},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func validate(cfg *Config) error {
	if cfg.Sampler.Walkers <= 0 {
		return fmt.Errorf("sampler.walkers must be positive, got %d", cfg.Sampler.Walkers)
	}
	if cfg.Sampler.Runs <= 0 {
		return fmt.Errorf("sampler.runs must be positive, got %d", cfg.Sampler.Runs)
	}
	if cfg.Injection.GridSamples < 2 {
		return fmt.Errorf("injection.gridSamples must be at least 2, got %d", cfg.Injection.GridSamples)
	}
	if cfg.Injection.Q < 1 {
		return fmt.Errorf("injection.q must be at least 1, got %g", cfg.Injection.Q)
	}
	if cfg.Injection.Amp < 0 {
		return fmt.Errorf("injection.amp must be non-negative, got %g", cfg.Injection.Amp)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ECCFIT_WALKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sampler.Walkers = n
		}
	}
	if v := os.Getenv("ECCFIT_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sampler.Runs = n
		}
	}
	if v := os.Getenv("ECCFIT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sampler.Workers = n
		}
	}
	if v := os.Getenv("ECCFIT_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Sampler.Seed = n
		}
	}
	if v := os.Getenv("ECCFIT_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("ECCFIT_METRICS_ADDRESS"); v != "" {
		cfg.Output.MetricsAddress = v
	}
	if v := os.Getenv("ECCFIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ECCFIT_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
}
