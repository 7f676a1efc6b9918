package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SkySingh04/DreamOps-sub000/pkg/types"
)

// Executor modes.
const (
	ExecutorKubectl = "kubectl"
	ExecutorNative  = "native"
	ExecutorMCP     = "mcp"
)

// Config holds server configuration read from environment variables.
type Config struct {
	Port         int
	LogLevel     string
	ClusterName  string
	OTelEnabled  bool
	OTelEndpoint string

	// ExecutorMode selects how diagnostic and remediation commands reach the
	// cluster: a kubectl subprocess, the native client-go executor, or a
	// remote MCP tool server.
	ExecutorMode string
	KubectlPath  string
	MCPServerURL string

	SlackBotToken  string
	SlackChannelID string

	Policy Policy
}

// Policy holds the remediation policy knobs. The defaults are deliberate and
// load-bearing; they are exposed as configuration so operators can tune them,
// not because other values are known to be better.
type Policy struct {
	// BaselineMemoryMi is the assumed memory limit used both to flag
	// high-memory pods and as the fallback when a deployment's current limit
	// cannot be read. It is an approximation: the actual configured limit is
	// not read from the pod spec.
	BaselineMemoryMi int64
	// HighMemoryThresholdPct flags a pod once usage exceeds this share of the
	// baseline.
	HighMemoryThresholdPct int
	// MemoryIncreasePct is the limit bump applied by OOM remediation.
	MemoryIncreasePct int
	// RequestPctOfLimit sets the memory request relative to the new limit.
	RequestPctOfLimit int
	// EventWindow bounds how old an OOM event may be to still count against
	// resolution during verification.
	EventWindow time.Duration
	// SettleDelay is the grace period before re-diagnosing after remediation.
	SettleDelay time.Duration
	// RolloutTimeout bounds rollout-status polling after a rolling restart.
	RolloutTimeout time.Duration
	// CommandTimeout bounds every single external command invocation.
	CommandTimeout time.Duration
	// MaxSuggestedCommands caps opportunistic execution of caller-supplied
	// command strings.
	MaxSuggestedCommands int
}

// DefaultPolicy returns the documented policy defaults.
func DefaultPolicy() Policy {
	return Policy{
		BaselineMemoryMi:       2048,
		HighMemoryThresholdPct: 80,
		MemoryIncreasePct:      50,
		RequestPctOfLimit:      80,
		EventWindow:            2 * time.Minute,
		SettleDelay:            5 * time.Second,
		RolloutTimeout:         60 * time.Second,
		CommandTimeout:         30 * time.Second,
		MaxSuggestedCommands:   3,
	}
}

// NewFromEnv creates a Config by reading environment variables with defaults.
// When POLICY_FILE is set, policy knobs are additionally loaded from YAML.
func NewFromEnv() (*Config, error) {
	port := 8080
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	logLevel := "info"
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		logLevel = v
	}

	otelEnabled := false
	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid OTEL_ENABLED value, defaulting to false")
		} else {
			otelEnabled = parsed
		}
	}

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = os.Getenv("OTEL_ENDPOINT")
	}

	mode := os.Getenv("EXECUTOR_MODE")
	switch mode {
	case "":
		mode = ExecutorKubectl
	case ExecutorKubectl, ExecutorNative, ExecutorMCP:
	default:
		return nil, fmt.Errorf("unsupported EXECUTOR_MODE %q", mode)
	}

	kubectlPath := os.Getenv("KUBECTL_PATH")
	if kubectlPath == "" {
		kubectlPath = "kubectl"
	}

	cfg := &Config{
		Port:           port,
		LogLevel:       logLevel,
		ClusterName:    os.Getenv("CLUSTER_NAME"),
		OTelEnabled:    otelEnabled,
		OTelEndpoint:   otelEndpoint,
		ExecutorMode:   mode,
		KubectlPath:    kubectlPath,
		MCPServerURL:   os.Getenv("MCP_SERVER_URL"),
		SlackBotToken:  os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannelID: os.Getenv("SLACK_CHANNEL_ID"),
		Policy:         DefaultPolicy(),
	}

	if path := os.Getenv("POLICY_FILE"); path != "" {
		if err := cfg.loadPolicyFile(path); err != nil {
			return nil, fmt.Errorf("failed to load policy file: %w", err)
		}
	}

	return cfg, nil
}

// policyFile is the YAML shape of a policy overlay. Durations are strings in
// time.ParseDuration format.
type policyFile struct {
	BaselineMemoryMi       int64  `yaml:"baseline_memory_mi"`
	HighMemoryThresholdPct int    `yaml:"high_memory_threshold_pct"`
	MemoryIncreasePct      int    `yaml:"memory_increase_pct"`
	RequestPctOfLimit      int    `yaml:"request_pct_of_limit"`
	EventWindow            string `yaml:"event_window"`
	SettleDelay            string `yaml:"settle_delay"`
	RolloutTimeout         string `yaml:"rollout_timeout"`
	CommandTimeout         string `yaml:"command_timeout"`
	MaxSuggestedCommands   int    `yaml:"max_suggested_commands"`
}

// loadPolicyFile overlays policy knobs from a YAML file. Absent fields keep
// their defaults.
func (c *Config) loadPolicyFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return err
	}

	var p policyFile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return err
	}

	if p.BaselineMemoryMi > 0 {
		c.Policy.BaselineMemoryMi = p.BaselineMemoryMi
	}
	if p.HighMemoryThresholdPct > 0 {
		c.Policy.HighMemoryThresholdPct = p.HighMemoryThresholdPct
	}
	if p.MemoryIncreasePct > 0 {
		c.Policy.MemoryIncreasePct = p.MemoryIncreasePct
	}
	if p.RequestPctOfLimit > 0 {
		c.Policy.RequestPctOfLimit = p.RequestPctOfLimit
	}
	if p.MaxSuggestedCommands > 0 {
		c.Policy.MaxSuggestedCommands = p.MaxSuggestedCommands
	}

	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{p.EventWindow, &c.Policy.EventWindow},
		{p.SettleDelay, &c.Policy.SettleDelay},
		{p.RolloutTimeout, &c.Policy.RolloutTimeout},
		{p.CommandTimeout, &c.Policy.CommandTimeout},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", d.raw, err)
		}
		*d.dst = parsed
	}
	return nil
}

// SetupLogging configures slog with a JSON handler at the configured log level.
func (c *Config) SetupLogging() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: c.SlogLevel()})
	slog.SetDefault(slog.New(handler))
}

// SlogLevel returns the configured slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ClusterMetadata returns the ClusterMetadata for use in StandardResponse.
func (c *Config) ClusterMetadata() types.ClusterMetadata {
	ns := os.Getenv("POD_NAMESPACE")
	if ns == "" {
		ns = "default"
	}
	return types.ClusterMetadata{
		Cluster:   c.ClusterName,
		Namespace: ns,
	}
}
