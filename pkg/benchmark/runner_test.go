package benchmark

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bankbench/pkg/bodies"
	"github.com/bankbench/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// gateway is a fake banking API that records what it receives
type gateway struct {
	mu     sync.Mutex
	paths  map[string]int
	bodies map[string][]map[string]any
	status func(path string) int
}

func newGateway(t *testing.T) (*gateway, *httptest.Server) {
	t.Helper()
	g := &gateway{paths: make(map[string]int), bodies: make(map[string][]map[string]any)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		g.mu.Lock()
		g.paths[r.URL.Path]++
		g.bodies[r.URL.Path] = append(g.bodies[r.URL.Path], body)
		status := http.StatusOK
		if g.status != nil {
			status = g.status(r.URL.Path)
		}
		g.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusUnauthorized {
			_, _ = w.Write([]byte(`{"message":"accessDenied"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)
	return g, srv
}

func (g *gateway) count(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paths[path]
}

func (g *gateway) total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.paths {
		n += c
	}
	return n
}

func (g *gateway) ids(path, field string) []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	var ids []int
	for _, body := range g.bodies[path] {
		if v, ok := body[field].(float64); ok {
			ids = append(ids, int(v))
		}
	}
	return ids
}

func testConfig(host string, n int) *config.Config {
	cfg := config.New()
	cfg.Host = host
	cfg.Requests = n
	cfg.Settings.Seed = 42
	cfg.Settings.ProgressEvery = 5
	cfg.Monitor.TriggerAt = -1
	return cfg
}

func newTestRunner(t *testing.T, cfg *config.Config) *Runner {
	t.Helper()
	r := NewRunner(cfg, zaptest.NewLogger(t), WithQuiet(true))
	t.Cleanup(r.Close)
	return r
}

func TestRunner_Measure(t *testing.T) {
	gw, srv := newGateway(t)
	cfg := testConfig(srv.URL, 12)
	r := newTestRunner(t, cfg)

	result, err := r.Measure(context.Background(), config.CreateCustomer, cfg.URLFor(config.CreateCustomer))
	require.NoError(t, err)

	assert.Equal(t, 12, gw.count("/createCustomer/john/12345"))
	assert.Equal(t, 12, result.NumberOfRequests)
	assert.Equal(t, "decentralized", result.AppVersion)
	assert.Equal(t, config.AuthValid, result.Auth)
	assert.Equal(t, config.CreateCustomer, result.Endpoint)
	assert.NotEmpty(t, result.RunID)
	assert.Greater(t, result.MaxResponseTime, 0.0)
	assert.LessOrEqual(t, result.MinResponseTime, result.AvgResponseTime)
	assert.LessOrEqual(t, result.AvgResponseTime, result.MaxResponseTime)
	assert.Greater(t, result.RequestsPerSecond, 0.0)
	assert.Equal(t, int64(12), result.Outcomes["200"])
	assert.Contains(t, result.Percentiles, "p99")

	for _, body := range gw.bodies["/createCustomer/john/12345"] {
		assert.Contains(t, body, "customerName")
		assert.Contains(t, body, "customerEmail")
	}
}

func TestRunner_AccessDeniedIsTolerated(t *testing.T) {
	gw, srv := newGateway(t)
	gw.status = func(string) int { return http.StatusUnauthorized }
	cfg := testConfig(srv.URL, 6)
	cfg.Auth = config.AuthInvalid
	r := newTestRunner(t, cfg)

	result, err := r.Measure(context.Background(), config.GetCustomer, cfg.URLFor(config.GetCustomer))
	require.NoError(t, err)

	assert.Equal(t, 6, gw.count("/getCustomer/bob/34567"))
	assert.Equal(t, 6, result.NumberOfRequests)
	assert.Equal(t, int64(6), result.AccessDenied)
	assert.Equal(t, int64(6), result.Outcomes["401 accessDenied"])
}

func TestRunner_ServerErrorIsFatal(t *testing.T) {
	gw, srv := newGateway(t)
	gw.status = func(string) int { return http.StatusInternalServerError }
	cfg := testConfig(srv.URL, 5)
	r := newTestRunner(t, cfg)

	_, err := r.Measure(context.Background(), config.GetAccount, cfg.URLFor(config.GetAccount))
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, srv.URL+"/getAccount/john/12345", reqErr.URL)
	assert.True(t, strings.HasPrefix(err.Error(), "Request for "+srv.URL+"/getAccount/john/12345 with JSON {\"accountID\":"))

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)

	// the run stops at the first failure
	assert.Equal(t, 1, gw.total())
}

func TestRunner_ConnectionFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()

	cfg := testConfig(host, 3)
	r := newTestRunner(t, cfg)

	_, err := r.Measure(context.Background(), config.CreateCustomer, cfg.URLFor(config.CreateCustomer))
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
}

func TestRunner_PoolExhaustionStopsRun(t *testing.T) {
	_, srv := newGateway(t)
	cfg := testConfig(srv.URL, 4)
	r := newTestRunner(t, cfg)
	r.Generator().Customers.Reset(1, 2)

	_, err := r.Measure(context.Background(), config.DeleteCustomer, cfg.URLFor(config.DeleteCustomer))
	assert.ErrorIs(t, err, bodies.ErrPoolExhausted)
	assert.Contains(t, err.Error(), "customers")
}

func TestRunner_MeasureMixedSplitsEvenly(t *testing.T) {
	gw, srv := newGateway(t)
	gw.status = func(path string) int {
		if strings.Contains(path, "/bob/") {
			return http.StatusUnauthorized
		}
		return http.StatusOK
	}
	cfg := testConfig(srv.URL, 20)
	cfg.Auth = config.AuthMixed
	r := newTestRunner(t, cfg)

	result, err := r.MeasureMixed(context.Background(), config.GetCustomer,
		cfg.InvalidURLFor(config.GetCustomer), cfg.URLFor(config.GetCustomer))
	require.NoError(t, err)

	assert.Equal(t, 10, gw.count("/getCustomer/bob/34567"))
	assert.Equal(t, 10, gw.count("/getCustomer/john/12345"))
	assert.Equal(t, 20, result.NumberOfRequests)
	assert.Equal(t, int64(10), result.AccessDenied)
	assert.Equal(t, config.AuthMixed, result.Auth)
}

func TestRunner_TriggersMonitorOnce(t *testing.T) {
	_, srv := newGateway(t)

	var mu sync.Mutex
	var triggers []string
	monitor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		triggers = append(triggers, r.Method+" "+r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte("Routine triggered!"))
	}))
	defer monitor.Close()

	cfg := testConfig(srv.URL, 8)
	cfg.Monitor.URL = monitor.URL
	cfg.Monitor.TriggerAt = 3
	r := newTestRunner(t, cfg)

	_, err := r.Measure(context.Background(), config.CreateCustomer, cfg.URLFor(config.CreateCustomer))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"POST /start/decentralized/createCustomer"}, triggers)
}

func TestRunner_UnreachableMonitorOnlyWarns(t *testing.T) {
	_, srv := newGateway(t)
	cfg := testConfig(srv.URL, 4)
	cfg.Monitor.URL = "http://127.0.0.1:1"
	cfg.Monitor.TriggerAt = 2
	r := newTestRunner(t, cfg)

	result, err := r.Measure(context.Background(), config.CreateCustomer, cfg.URLFor(config.CreateCustomer))
	require.NoError(t, err)
	assert.Equal(t, 4, result.NumberOfRequests)
}

func TestRunner_FillAccounts(t *testing.T) {
	gw, srv := newGateway(t)
	cfg := testConfig(srv.URL, 5)
	r := newTestRunner(t, cfg)

	require.NoError(t, r.FillAccounts(context.Background(), 5, cfg.FillURL()))
	assert.Equal(t, 5, gw.count("/createAccount/john/12345"))
	assert.Equal(t, 0, r.Generator().Customers.Len())
}

func TestRunner_FillAccountsRejectsAccessDenied(t *testing.T) {
	gw, srv := newGateway(t)
	gw.status = func(string) int { return http.StatusUnauthorized }
	cfg := testConfig(srv.URL, 5)
	r := newTestRunner(t, cfg)

	err := r.FillAccounts(context.Background(), 5, cfg.FillURL())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
}

func TestRunner_CancelledContext(t *testing.T) {
	_, srv := newGateway(t)
	cfg := testConfig(srv.URL, 5)
	r := newTestRunner(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Measure(ctx, config.CreateCustomer, cfg.URLFor(config.CreateCustomer))
	assert.True(t, errors.Is(err, context.Canceled))
}
