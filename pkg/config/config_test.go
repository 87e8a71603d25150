package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "http://localhost:8000", cfg.Host)
	assert.Equal(t, "decentralized", cfg.AppVersion)
	assert.Equal(t, AuthValid, cfg.Auth)
	assert.Equal(t, 15000, cfg.Requests)
	assert.Equal(t, OrderedEndpoints, cfg.Endpoints)
	assert.Equal(t, User{ID: "john", Password: "12345"}, cfg.Credentials.Valid)
	assert.Equal(t, User{ID: "bob", Password: "34567"}, cfg.Credentials.Invalid)
	assert.Equal(t, 1000, cfg.Monitor.TriggerAt)
	assert.Equal(t, 30, cfg.Monitor.Iterations)
	assert.Equal(t, []string{"docker", "stats", "--no-stream"}, cfg.Monitor.Command)
	assert.Equal(t, "times.log", cfg.Output.TimesLog)
	assert.Equal(t, []int{50, 75, 90, 99}, cfg.Settings.Percentiles)
	require.NoError(t, cfg.Validate())
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "bench.json", `{
		"host": "http://gateway:8000",
		"appVersion": "noauth",
		"requests": 200,
		"endpoints": ["createCustomer", "getCustomer"],
		"settings": {"timeout": "5s", "rateLimit": 50}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://gateway:8000", cfg.Host)
	assert.True(t, cfg.IsNoAuth())
	assert.Equal(t, 200, cfg.Requests)
	assert.Equal(t, []string{CreateCustomer, GetCustomer}, cfg.Endpoints)
	assert.Equal(t, 50, cfg.Settings.RateLimit)
	assert.Equal(t, "5s", cfg.Settings.Timeout)
	assert.Equal(t, "resources.log", cfg.Monitor.LogFile)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "bench.yaml", `
host: http://gateway:8000
auth: mixed
requests: 10
credentials:
  valid:
    user: alice
    password: secret
monitor:
  iterations: 5
  interval: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, AuthMixed, cfg.Auth)
	assert.Equal(t, "alice", cfg.Credentials.Valid.ID)
	assert.Equal(t, "bob", cfg.Credentials.Invalid.ID)
	assert.Equal(t, 5, cfg.Monitor.Iterations)
	assert.Equal(t, "2s", cfg.Monitor.Interval)
	assert.Equal(t, int64(2), int64(cfg.MonitorInterval().Seconds()))
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := writeFile(t, "broken.json", `{"host": `)
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown auth", func(c *Config) { c.Auth = "sometimes" }},
		{"negative requests", func(c *Config) { c.Requests = -1 }},
		{"unknown endpoint", func(c *Config) { c.Endpoints = []string{"openVault"} }},
		{"bad timeout", func(c *Config) { c.Settings.Timeout = "soon" }},
		{"bad interval", func(c *Config) { c.Monitor.Interval = "later" }},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestURLFor(t *testing.T) {
	cfg := New()
	cfg.Host = "http://gw"

	assert.Equal(t, "http://gw/getCustomer/john/12345", cfg.URLFor(GetCustomer))
	assert.Equal(t, "http://gw/getCustomer/bob/34567", cfg.InvalidURLFor(GetCustomer))
	assert.Equal(t, "http://gw/createAccount/john/12345", cfg.FillURL())

	cfg.Auth = AuthInvalid
	assert.Equal(t, "http://gw/getCustomer/bob/34567", cfg.URLFor(GetCustomer))

	cfg.AppVersion = NoAuthVersion
	assert.Equal(t, "http://gw/getCustomer", cfg.URLFor(GetCustomer))
	assert.Equal(t, "http://gw/createAccount", cfg.FillURL())
}

func TestRestoresCustomers(t *testing.T) {
	for _, e := range []string{CreateAccount, GetBalanceByCustomer, DeleteCustomer, DeleteAccount} {
		assert.True(t, RestoresCustomers(e), e)
	}
	assert.False(t, RestoresCustomers(DeleteAccountsByCustomer))
	assert.False(t, RestoresCustomers(GetCustomer))
}

func TestResolveConfigVariables(t *testing.T) {
	t.Setenv("BANKBENCH_TEST_PASSWORD", "s3cret")

	cfg := New()
	cfg.Variables["gateway"] = "http://gw:8000"
	cfg.Host = "{{gateway}}/"
	cfg.Credentials.Valid.Password = `{{env "BANKBENCH_TEST_PASSWORD"}}`
	cfg.ResolveConfigVariables()

	assert.Equal(t, "http://gw:8000", cfg.Host)
	assert.Equal(t, "s3cret", cfg.Credentials.Valid.Password)
}

func TestIntSliceFlag(t *testing.T) {
	var p IntSliceFlag
	require.NoError(t, p.Set("50, 90,99"))
	assert.Equal(t, IntSliceFlag{50, 90, 99}, p)

	assert.Error(t, p.Set("101"))
	assert.Error(t, p.Set("abc"))
}

func TestParseLatency(t *testing.T) {
	sec, err := ParseLatency("250ms")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, sec, 1e-9)

	sec, err = ParseLatency("")
	require.NoError(t, err)
	assert.Zero(t, sec)

	_, err = ParseLatency("fast")
	assert.Error(t, err)
}
