package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"school_portal/internal/core"
	"school_portal/internal/portal"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of config.yaml
type YAMLConfig struct {
	Retrieval struct {
		DailyConcurrency   int      `yaml:"daily_concurrency"`
		DefaultConcurrency int      `yaml:"default_concurrency"`
		MinConcurrency     int      `yaml:"min_concurrency"`
		MaxConcurrency     int      `yaml:"max_concurrency"`
		QuickMonths        int      `yaml:"quick_months"`
		FallbackMonths     int      `yaml:"fallback_months"`
		SkipWeekdays       []string `yaml:"skip_weekdays"`
	} `yaml:"retrieval"`
	Menus map[string]portal.Menu `yaml:"menus"`
}

// Default returns the configuration used when no file is present
func Default() *YAMLConfig {
	defaults := core.DefaultRetrievalConfig()

	var config YAMLConfig
	config.Retrieval.DailyConcurrency = defaults.DailyConcurrency
	config.Retrieval.DefaultConcurrency = defaults.DefaultConcurrency
	config.Retrieval.MinConcurrency = defaults.MinConcurrency
	config.Retrieval.MaxConcurrency = defaults.MaxConcurrency
	config.Retrieval.QuickMonths = defaults.QuickMonths
	config.Retrieval.FallbackMonths = defaults.FallbackMonths
	for _, day := range defaults.SkipWeekdays {
		config.Retrieval.SkipWeekdays = append(config.Retrieval.SkipWeekdays, day.String())
	}
	return &config
}

// LoadConfig loads configuration from config.yaml on top of the defaults. A missing file is not
// an error.
func LoadConfig(filepath string) (*YAMLConfig, error) {
	config := Default()

	data, err := os.ReadFile(filepath)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	return config, nil
}

// BuildRetrievalConfig validates the retrieval section and converts it for the pipeline
func BuildRetrievalConfig(yamlConfig *YAMLConfig) (core.RetrievalConfig, error) {
	r := yamlConfig.Retrieval

	if r.MinConcurrency < 1 {
		return core.RetrievalConfig{}, fmt.Errorf("min_concurrency must be positive, got %d", r.MinConcurrency)
	}
	if r.MaxConcurrency < r.MinConcurrency {
		return core.RetrievalConfig{}, fmt.Errorf("max_concurrency %d is below min_concurrency %d", r.MaxConcurrency, r.MinConcurrency)
	}
	if r.QuickMonths < 1 || r.QuickMonths > 12 {
		return core.RetrievalConfig{}, fmt.Errorf("quick_months must be within 1..12, got %d", r.QuickMonths)
	}
	if r.FallbackMonths < 1 || r.FallbackMonths > 12 {
		return core.RetrievalConfig{}, fmt.Errorf("fallback_months must be within 1..12, got %d", r.FallbackMonths)
	}

	skip := make([]time.Weekday, 0, len(r.SkipWeekdays))
	for _, name := range r.SkipWeekdays {
		day, err := parseWeekday(name)
		if err != nil {
			return core.RetrievalConfig{}, err
		}
		skip = append(skip, day)
	}

	return core.RetrievalConfig{
		DailyConcurrency:   r.DailyConcurrency,
		DefaultConcurrency: r.DefaultConcurrency,
		MinConcurrency:     r.MinConcurrency,
		MaxConcurrency:     r.MaxConcurrency,
		QuickMonths:        r.QuickMonths,
		FallbackMonths:     r.FallbackMonths,
		SkipWeekdays:       skip,
	}, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday: %q", name)
}
