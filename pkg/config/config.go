// Package config handles JSON/YAML configuration loading and parsing
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Auth modes
const (
	AuthValid   = "valid"
	AuthInvalid = "invalid"
	AuthMixed   = "mixed"
)

// NoAuthVersion is the application version that exposes endpoints without credentials
const NoAuthVersion = "noauth"

// Config represents the root configuration
type Config struct {
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Host        string            `json:"host,omitempty" yaml:"host,omitempty"`
	AppVersion  string            `json:"appVersion,omitempty" yaml:"appVersion,omitempty"`
	Auth        string            `json:"auth,omitempty" yaml:"auth,omitempty"`
	Requests    int               `json:"requests,omitempty" yaml:"requests,omitempty"` // Requests per endpoint
	Endpoints   []string          `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`
	Credentials Credentials       `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Variables   map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Settings    Settings          `json:"settings,omitempty" yaml:"settings,omitempty"`
	Monitor     MonitorConfig     `json:"monitor,omitempty" yaml:"monitor,omitempty"`
	Receiver    ReceiverConfig    `json:"receiver,omitempty" yaml:"receiver,omitempty"`
	Export      ExportConfig      `json:"export,omitempty" yaml:"export,omitempty"`
	Output      OutputConfig      `json:"output,omitempty" yaml:"output,omitempty"`
	Thresholds  ThresholdConfig   `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// User is a gateway user identified by ID and password in the URL path
type User struct {
	ID       string `json:"user,omitempty" yaml:"user,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// Credentials holds the users used for authorized and unauthorized calls
type Credentials struct {
	Valid   User `json:"valid,omitempty" yaml:"valid,omitempty"`
	Invalid User `json:"invalid,omitempty" yaml:"invalid,omitempty"`
}

// Settings contains global load settings
type Settings struct {
	Timeout          string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Insecure         bool   `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	KeepAlive        *bool  `json:"keepAlive,omitempty" yaml:"keepAlive,omitempty"` // Pointer to distinguish unset from false
	DisableKeepAlive bool   `json:"disableKeepAlive,omitempty" yaml:"disableKeepAlive,omitempty"`
	HTTP2            bool   `json:"http2,omitempty" yaml:"http2,omitempty"`
	RateLimit        int    `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"` // Requests per second limit
	Percentiles      []int  `json:"percentiles,omitempty" yaml:"percentiles,omitempty"`
	ProgressEvery    int    `json:"progressEvery,omitempty" yaml:"progressEvery,omitempty"`
	Seed             int64  `json:"seed,omitempty" yaml:"seed,omitempty"`
	ShowProgress     bool   `json:"showProgress,omitempty" yaml:"showProgress,omitempty"`
	ShowHistogram    bool   `json:"showHistogram,omitempty" yaml:"showHistogram,omitempty"`
}

// MonitorConfig configures both the resource monitor service and how the load run triggers it
type MonitorConfig struct {
	URL        string   `json:"url,omitempty" yaml:"url,omitempty"`
	TriggerAt  int      `json:"triggerAt,omitempty" yaml:"triggerAt,omitempty"` // Request index that starts a capture, negative disables
	Addr       string   `json:"addr,omitempty" yaml:"addr,omitempty"`
	Iterations int      `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	Interval   string   `json:"interval,omitempty" yaml:"interval,omitempty"`
	LogFile    string   `json:"logFile,omitempty" yaml:"logFile,omitempty"`
	Command    []string `json:"command,omitempty" yaml:"command,omitempty"`
}

// ReceiverConfig configures the request logging receiver
type ReceiverConfig struct {
	Addr    string `json:"addr,omitempty" yaml:"addr,omitempty"`
	LogFile string `json:"logFile,omitempty" yaml:"logFile,omitempty"`
}

// ExportConfig defines where endpoint results are POSTed, if anywhere
type ExportConfig struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// OutputConfig defines output settings
type OutputConfig struct {
	Format   string `json:"format,omitempty" yaml:"format,omitempty"`
	File     string `json:"file,omitempty" yaml:"file,omitempty"`
	TimesLog string `json:"timesLog,omitempty" yaml:"timesLog,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
}

// ThresholdConfig defines pass/fail criteria checked against every endpoint result
type ThresholdConfig struct {
	MaxAvgResponseTime   string  `json:"maxAvgResponseTime,omitempty" yaml:"maxAvgResponseTime,omitempty"` // e.g. "50ms"
	MaxP50               string  `json:"maxP50,omitempty" yaml:"maxP50,omitempty"`
	MaxP90               string  `json:"maxP90,omitempty" yaml:"maxP90,omitempty"`
	MaxP99               string  `json:"maxP99,omitempty" yaml:"maxP99,omitempty"`
	MinRequestsPerSecond float64 `json:"minRequestsPerSecond,omitempty" yaml:"minRequestsPerSecond,omitempty"`
}

// HasThresholds returns true if any thresholds are defined
func (t *ThresholdConfig) HasThresholds() bool {
	return t.MaxAvgResponseTime != "" ||
		t.MaxP50 != "" ||
		t.MaxP90 != "" ||
		t.MaxP99 != "" ||
		t.MinRequestsPerSecond > 0
}

// ParseLatency parses a latency string (e.g., "500ms", "1s") and returns seconds
func ParseLatency(latencyStr string) (float64, error) {
	if latencyStr == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(latencyStr)
	if err != nil {
		return 0, fmt.Errorf("invalid latency format: %w", err)
	}
	return dur.Seconds(), nil
}

// IntSliceFlag is a custom flag type for handling multiple integers (percentiles)
type IntSliceFlag []int

func (i *IntSliceFlag) String() string {
	return fmt.Sprintf("%v", *i)
}

func (i *IntSliceFlag) Set(value string) error {
	parts := strings.Split(value, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		val, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid percentile value: %s", p)
		}
		if val < 0 || val > 100 {
			return fmt.Errorf("percentile must be between 0 and 100: %d", val)
		}
		*i = append(*i, val)
	}
	return nil
}

// Type implements pflag.Value
func (i *IntSliceFlag) Type() string {
	return "ints"
}

// Load loads configuration from a JSON or YAML file
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.SetDefaults()

	return &config, nil
}

// New returns a configuration populated only with defaults
func New() *Config {
	config := &Config{}
	config.SetDefaults()
	return config
}

// SetDefaults sets default values for the configuration
func (c *Config) SetDefaults() {
	if c.Host == "" {
		c.Host = "http://localhost:8000"
	}
	if c.AppVersion == "" {
		c.AppVersion = "decentralized"
	}
	if c.Auth == "" {
		c.Auth = AuthValid
	}
	if c.Requests == 0 {
		c.Requests = 15000
	}
	if len(c.Endpoints) == 0 {
		c.Endpoints = append([]string(nil), OrderedEndpoints...)
	}

	if c.Credentials.Valid.ID == "" {
		c.Credentials.Valid = User{ID: "john", Password: "12345"}
	}
	if c.Credentials.Invalid.ID == "" {
		c.Credentials.Invalid = User{ID: "bob", Password: "34567"}
	}

	if c.Settings.Timeout == "" {
		c.Settings.Timeout = "30s"
	}
	if len(c.Settings.Percentiles) == 0 {
		c.Settings.Percentiles = []int{50, 75, 90, 99}
	}
	if c.Settings.ProgressEvery == 0 {
		c.Settings.ProgressEvery = 1000
	}

	if c.Monitor.URL == "" {
		c.Monitor.URL = "http://localhost:5000"
	}
	if c.Monitor.TriggerAt == 0 {
		c.Monitor.TriggerAt = 1000
	}
	if c.Monitor.Addr == "" {
		c.Monitor.Addr = ":5000"
	}
	if c.Monitor.Iterations == 0 {
		c.Monitor.Iterations = 30
	}
	if c.Monitor.Interval == "" {
		c.Monitor.Interval = "0s"
	}
	if c.Monitor.LogFile == "" {
		c.Monitor.LogFile = "resources.log"
	}
	if len(c.Monitor.Command) == 0 {
		c.Monitor.Command = []string{"docker", "stats", "--no-stream"}
	}

	if c.Receiver.Addr == "" {
		c.Receiver.Addr = ":5001"
	}
	if c.Receiver.LogFile == "" {
		c.Receiver.LogFile = "requests.log"
	}

	if c.Output.TimesLog == "" {
		c.Output.TimesLog = "times.log"
	}

	if c.Variables == nil {
		c.Variables = make(map[string]string)
	}
}

// Validate checks the configuration for values the runner cannot work with
func (c *Config) Validate() error {
	switch c.Auth {
	case AuthValid, AuthInvalid, AuthMixed:
	default:
		return fmt.Errorf("unknown auth mode %q (want valid, invalid or mixed)", c.Auth)
	}
	if c.Requests <= 0 {
		return fmt.Errorf("requests must be positive, got %d", c.Requests)
	}
	for _, endpoint := range c.Endpoints {
		if !IsKnownEndpoint(endpoint) {
			return fmt.Errorf("unknown endpoint %q", endpoint)
		}
	}
	if _, err := time.ParseDuration(c.Settings.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Monitor.Interval); err != nil {
		return fmt.Errorf("invalid monitor interval: %w", err)
	}
	if c.Settings.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}
	switch c.Output.Format {
	case "", "console", "json", "csv", "html":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	return nil
}

// IsNoAuth returns true when endpoints are called without credential path segments
func (c *Config) IsNoAuth() bool {
	return c.AppVersion == NoAuthVersion
}

// Timeout returns the per-request timeout
func (c *Config) Timeout() time.Duration {
	dur, err := time.ParseDuration(c.Settings.Timeout)
	if err != nil || dur <= 0 {
		return 30 * time.Second
	}
	return dur
}

// MonitorInterval returns the pause between two stats samples
func (c *Config) MonitorInterval() time.Duration {
	dur, err := time.ParseDuration(c.Monitor.Interval)
	if err != nil || dur < 0 {
		return 0
	}
	return dur
}

// IsKeepAliveDisabled returns true if keep-alive should be disabled
func (c *Config) IsKeepAliveDisabled() bool {
	if c.Settings.DisableKeepAlive {
		return true
	}
	if c.Settings.KeepAlive != nil && !*c.Settings.KeepAlive {
		return true
	}
	return false
}

// ResolveVariables replaces variables in a string with their values
func ResolveVariables(input string, variables map[string]string) string {
	result := input
	for key, value := range variables {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	// Handle environment variables
	for strings.Contains(result, "{{env ") {
		start := strings.Index(result, "{{env ")
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		envExpr := result[start : start+end+2]
		// Format: {{env "VAR_NAME"}}
		varName := strings.TrimPrefix(envExpr, "{{env ")
		varName = strings.TrimSuffix(varName, "}}")
		varName = strings.Trim(varName, "\"'")
		result = strings.Replace(result, envExpr, os.Getenv(varName), 1)
	}
	return result
}

// ResolveConfigVariables resolves variables in every URL and credential field
func (c *Config) ResolveConfigVariables() {
	c.Host = strings.TrimSuffix(ResolveVariables(c.Host, c.Variables), "/")
	c.Monitor.URL = strings.TrimSuffix(ResolveVariables(c.Monitor.URL, c.Variables), "/")
	c.Export.URL = ResolveVariables(c.Export.URL, c.Variables)
	c.Credentials.Valid.ID = ResolveVariables(c.Credentials.Valid.ID, c.Variables)
	c.Credentials.Valid.Password = ResolveVariables(c.Credentials.Valid.Password, c.Variables)
	c.Credentials.Invalid.ID = ResolveVariables(c.Credentials.Invalid.ID, c.Variables)
	c.Credentials.Invalid.Password = ResolveVariables(c.Credentials.Invalid.Password, c.Variables)
}
