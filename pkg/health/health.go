package health

import (
	"context"
	"fmt"
	"time"
)

// CheckType represents the type of probe
type CheckType string

const (
	CheckTypeHTTP CheckType = "http"
	CheckTypeTCP  CheckType = "tcp"
	CheckTypeExec CheckType = "exec"
)

// Result represents the outcome of a probe
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is the interface that all probes implement
type Checker interface {
	// Check performs the probe and returns the result
	Check(ctx context.Context) Result

	// Type returns the type of probe
	Type() CheckType
}

// Config controls how often a process is probed and when it is
// considered down.
type Config struct {
	// Interval is the time between probes
	Interval time.Duration `yaml:"interval,omitempty"`

	// Timeout is the maximum time to wait for a single probe
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Retries is the number of consecutive failures before marking as unhealthy
	Retries int `yaml:"retries,omitempty"`

	// StartPeriod is the grace period during which failures are not counted.
	// Model loading can take minutes.
	StartPeriod time.Duration `yaml:"startPeriod,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		Retries:     3,
		StartPeriod: 0,
	}
}

// WithDefaults fills zero fields from DefaultConfig
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Retries <= 0 {
		c.Retries = d.Retries
	}
	return c
}

// Probe describes how to reach an inference process
type Probe struct {
	Type    CheckType         `yaml:"type"`
	URL     string            `yaml:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Address string            `yaml:"address,omitempty"`
	Command []string          `yaml:"command,omitempty"`
	Config  `yaml:",inline"`
}

// NewChecker builds the checker that probes the process serving modelID.
// Result messages name the model and the endpoint probed.
func NewChecker(modelID string, p Probe) (Checker, error) {
	switch p.Type {
	case CheckTypeHTTP:
		if p.URL == "" {
			return nil, fmt.Errorf("http probe requires a url")
		}
		return newHTTPChecker(modelID, p), nil
	case CheckTypeTCP:
		if p.Address == "" {
			return nil, fmt.Errorf("tcp probe requires an address")
		}
		return newTCPChecker(modelID, p), nil
	case CheckTypeExec:
		if len(p.Command) == 0 {
			return nil, fmt.Errorf("exec probe requires a command")
		}
		return newExecChecker(modelID, p), nil
	default:
		return nil, fmt.Errorf("unsupported probe type: %q", p.Type)
	}
}

// Status tracks the current health of a process
type Status struct {
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastCheck            time.Time
	LastResult           Result

	// Healthy is false until the first successful probe and again after
	// Retries consecutive failures.
	Healthy bool

	// Ready is set by the first successful probe
	Ready bool

	StartedAt time.Time
}

// NewStatus creates a Status for a process that has not answered yet
func NewStatus(now time.Time) *Status {
	return &Status{StartedAt: now}
}

// Update updates the status based on a new probe result
func (s *Status) Update(result Result, config Config) {
	s.LastCheck = result.CheckedAt
	s.LastResult = result

	if result.Healthy {
		s.ConsecutiveSuccesses++
		s.ConsecutiveFailures = 0
		s.Healthy = true
		s.Ready = true
		return
	}

	s.ConsecutiveSuccesses = 0
	if s.InStartPeriod(config, result.CheckedAt) {
		return
	}
	s.ConsecutiveFailures++
	if s.ConsecutiveFailures >= config.Retries {
		s.Healthy = false
	}
}

// InStartPeriod returns true if now is still inside the startup grace period
func (s *Status) InStartPeriod(config Config, now time.Time) bool {
	if config.StartPeriod == 0 || s.Ready {
		return false
	}
	return now.Sub(s.StartedAt) < config.StartPeriod
}
