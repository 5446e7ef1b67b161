package domain

import (
	"fmt"
	"time"
)

const (
	// DefaultScanDelay throttles process spawning between scanned files.
	DefaultScanDelay = 100 * time.Millisecond
	// DefaultFixTimeout bounds a single fix process before the watchdog kills it.
	DefaultFixTimeout = 30 * time.Second
	// UnboundedConcurrency lets every fix process run at once.
	UnboundedConcurrency = -1
)

// ProjectConfig holds project-level configuration loaded from .phpsniff.yaml.
type ProjectConfig struct {
	Ruleset        Ruleset  `yaml:"ruleset"         json:"ruleset,omitempty"`
	Exclude        []string `yaml:"exclude"         json:"exclude,omitempty"`
	Debug          bool     `yaml:"debug"           json:"debug,omitempty"`
	Tools          Tools    `yaml:"tools"           json:"tools,omitempty"`
	InstallCommand []string `yaml:"install_command" json:"install_command,omitempty"`
	ScanDelay      Duration `yaml:"scan_delay"      json:"scan_delay,omitempty"`
	FixTimeout     Duration `yaml:"fix_timeout"     json:"fix_timeout,omitempty"`
	FixConcurrency int      `yaml:"fix_concurrency" json:"fix_concurrency,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("250ms") in YAML.
type Duration struct {
	time.Duration
	set bool
}

// NewDuration returns an explicitly set Duration.
func NewDuration(d time.Duration) Duration { return Duration{Duration: d, set: true} }

// IsSet distinguishes an explicit zero from an absent value.
func (d Duration) IsSet() bool { return d.set }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	d.set = true
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() ProjectConfig {
	return ProjectConfig{
		Ruleset:        DefaultRuleset,
		Tools:          DefaultTools(),
		ScanDelay:      NewDuration(DefaultScanDelay),
		FixTimeout:     NewDuration(DefaultFixTimeout),
		FixConcurrency: UnboundedConcurrency,
	}
}

// Validate checks the config for invalid values and returns a descriptive error.
// An unknown ruleset is not an error; it falls back at run time.
func (c ProjectConfig) Validate() error {
	if c.ScanDelay.Duration < 0 {
		return fmt.Errorf("scan_delay must not be negative (got %s)", c.ScanDelay.Duration)
	}
	if c.FixTimeout.IsSet() && c.FixTimeout.Duration <= 0 {
		return fmt.Errorf("fix_timeout must be positive (got %s)", c.FixTimeout.Duration)
	}
	for i, p := range c.Exclude {
		if p == "" {
			return fmt.Errorf("exclude[%d] is empty", i)
		}
	}
	if len(c.InstallCommand) > 0 && c.InstallCommand[0] == "" {
		return fmt.Errorf("install_command must start with an executable")
	}
	return nil
}

// Merge overlays explicit (non-zero) values from override onto c.
func (c ProjectConfig) Merge(override ProjectConfig) ProjectConfig {
	result := c
	if override.Ruleset != "" {
		result.Ruleset = override.Ruleset
	}
	if len(override.Exclude) > 0 {
		result.Exclude = override.Exclude
	}
	if override.Debug {
		result.Debug = true
	}
	if override.Tools.PHP != "" {
		result.Tools.PHP = override.Tools.PHP
	}
	if override.Tools.Phpcs != "" {
		result.Tools.Phpcs = override.Tools.Phpcs
	}
	if override.Tools.Phpcbf != "" {
		result.Tools.Phpcbf = override.Tools.Phpcbf
	}
	if len(override.InstallCommand) > 0 {
		result.InstallCommand = override.InstallCommand
	}
	if override.ScanDelay.IsSet() {
		result.ScanDelay = override.ScanDelay
	}
	if override.FixTimeout.IsSet() {
		result.FixTimeout = override.FixTimeout
	}
	if override.FixConcurrency != 0 {
		result.FixConcurrency = override.FixConcurrency
	}
	return result
}

// RunConfig freezes the project config into a session configuration for roots.
// The ruleset is normalized against the catalog.
func (c ProjectConfig) RunConfig(roots []string) RunConfig {
	fixTimeout := c.FixTimeout.Duration
	if fixTimeout <= 0 {
		fixTimeout = DefaultFixTimeout
	}
	concurrency := c.FixConcurrency
	if concurrency == 0 {
		concurrency = UnboundedConcurrency
	}
	excludes := make([]string, len(c.Exclude))
	copy(excludes, c.Exclude)
	rootsCopy := make([]string, len(roots))
	copy(rootsCopy, roots)

	return RunConfig{
		Roots:          rootsCopy,
		Ruleset:        NormalizeRuleset(c.Ruleset),
		Excludes:       excludes,
		Debug:          c.Debug,
		Tools:          c.Tools,
		ScanDelay:      c.ScanDelay.Duration,
		FixTimeout:     fixTimeout,
		FixConcurrency: concurrency,
	}
}
