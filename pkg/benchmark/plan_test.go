package benchmark

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/bankbench/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func collect(results *[]*EndpointResult) ResultSink {
	return func(_ context.Context, r *EndpointResult) error {
		*results = append(*results, r)
		return nil
	}
}

func TestPlan_NoAuthRefillsBeforeDeletes(t *testing.T) {
	gw, srv := newGateway(t)
	cfg := testConfig(srv.URL, 4)
	cfg.AppVersion = config.NoAuthVersion
	cfg.Endpoints = []string{
		config.CreateCustomer,
		config.CreateAccount,
		config.DeleteAccount,
		config.DeleteAccountsByCustomer,
	}
	r := newTestRunner(t, cfg)

	var sunk []*EndpointResult
	results, err := NewPlan(cfg, r, zaptest.NewLogger(t), collect(&sunk)).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, results, 4)
	assert.Equal(t, results, sunk)
	for i, endpoint := range cfg.Endpoints {
		assert.Equal(t, endpoint, results[i].Endpoint)
		assert.Equal(t, 4, results[i].NumberOfRequests)
	}

	// createAccount once measured plus two fills
	assert.Equal(t, 12, gw.count("/createAccount"))
	assert.ElementsMatch(t, []int{5, 6, 7, 8}, gw.ids("/deleteAccount", "accountID"))
	assert.ElementsMatch(t, []int{1, 2, 3, 4}, gw.ids("/deleteAccountsByCustomer", "customerID"))
	assert.Equal(t, 4, r.Generator().Accounts.Len(), "accounts 9..12 stay untouched")
}

func TestPlan_RestoresCustomersAfterCreateAccount(t *testing.T) {
	gw, srv := newGateway(t)
	cfg := testConfig(srv.URL, 3)
	cfg.Endpoints = []string{config.CreateAccount, config.DeleteCustomer}
	r := newTestRunner(t, cfg)

	_, err := NewPlan(cfg, r, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{1, 2, 3}, gw.ids("/deleteCustomer/john/12345", "customerID"))
	assert.Equal(t, 3, r.Generator().Customers.Len())
}

func TestPlan_InvalidSkipsFill(t *testing.T) {
	gw, srv := newGateway(t)
	gw.status = func(string) int { return http.StatusUnauthorized }
	cfg := testConfig(srv.URL, 3)
	cfg.Auth = config.AuthInvalid
	cfg.Endpoints = []string{config.DeleteAccount, config.DeleteAccountsByCustomer}
	r := newTestRunner(t, cfg)

	results, err := NewPlan(cfg, r, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Zero(t, gw.count("/createAccount/john/12345"))
	assert.Zero(t, gw.count("/createAccount/bob/34567"))
	assert.ElementsMatch(t, []int{4, 5, 6}, gw.ids("/deleteAccount/bob/34567", "accountID"))
	assert.Equal(t, int64(3), results[0].AccessDenied)
}

func TestPlan_MixedUsesHalfTheIDs(t *testing.T) {
	gw, srv := newGateway(t)
	gw.status = func(path string) int {
		if strings.Contains(path, "/bob/") {
			return http.StatusUnauthorized
		}
		return http.StatusOK
	}
	cfg := testConfig(srv.URL, 10)
	cfg.Auth = config.AuthMixed
	cfg.Endpoints = []string{config.GetCustomer, config.CreateAccount, config.GetAccount}
	r := newTestRunner(t, cfg)

	_, err := NewPlan(cfg, r, zaptest.NewLogger(t)).Run(context.Background())
	require.NoError(t, err)

	for _, id := range append(gw.ids("/getCustomer/john/12345", "customerID"), gw.ids("/getCustomer/bob/34567", "customerID")...) {
		assert.LessOrEqual(t, id, 5)
	}
	for _, id := range append(gw.ids("/getAccount/john/12345", "accountID"), gw.ids("/getAccount/bob/34567", "accountID")...) {
		assert.LessOrEqual(t, id, 5)
	}
	// createAccount drew from the full customer range
	assert.Len(t, append(gw.ids("/createAccount/john/12345", "customerID"), gw.ids("/createAccount/bob/34567", "customerID")...), 10)
	assert.Equal(t, 5, gw.count("/getAccount/bob/34567"))
}

func TestPlan_StopsAtFirstError(t *testing.T) {
	gw, srv := newGateway(t)
	gw.status = func(path string) int {
		if strings.HasPrefix(path, "/getCustomer") {
			return http.StatusBadGateway
		}
		return http.StatusOK
	}
	cfg := testConfig(srv.URL, 2)
	cfg.Endpoints = []string{config.CreateCustomer, config.GetCustomer, config.GetAccount}
	r := newTestRunner(t, cfg)

	results, err := NewPlan(cfg, r, zaptest.NewLogger(t)).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "measuring getCustomer")
	assert.Len(t, results, 1)
	assert.Zero(t, gw.count("/getAccount/john/12345"))
}

func TestPlan_SinkErrorStopsRun(t *testing.T) {
	_, srv := newGateway(t)
	cfg := testConfig(srv.URL, 1)
	cfg.Endpoints = []string{config.CreateCustomer, config.GetCustomer}
	r := newTestRunner(t, cfg)

	boom := errors.New("disk full")
	sink := func(context.Context, *EndpointResult) error { return boom }

	results, err := NewPlan(cfg, r, zaptest.NewLogger(t), sink).Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, results, 1)
}

func TestExportSink(t *testing.T) {
	gw, srv := newGateway(t)
	cfg := testConfig(srv.URL, 1)
	client := NewClient(cfg)

	result := &EndpointResult{Endpoint: config.Notify, AppVersion: "centralized", NumberOfRequests: 7}
	require.NoError(t, ExportSink(client, srv.URL+"/export", zaptest.NewLogger(t))(context.Background(), result))

	bodies := gw.bodies["/export"]
	require.Len(t, bodies, 1)
	assert.Equal(t, "notify", bodies[0]["endpoint"])
	assert.Equal(t, "centralized", bodies[0]["application version"])
	assert.Equal(t, 7.0, bodies[0]["number of requests"])
}

func TestExportSink_FailureIsNotFatal(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1", 1)
	sink := ExportSink(NewClient(cfg), "http://127.0.0.1:1/export", zaptest.NewLogger(t))
	assert.NoError(t, sink(context.Background(), &EndpointResult{Endpoint: config.Notify}))
}
