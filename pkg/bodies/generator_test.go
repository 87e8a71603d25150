package bodies

import (
	"errors"
	"math/rand"
	"regexp"
	"testing"

	"github.com/bankbench/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDPool_TakeDrainsEveryID(t *testing.T) {
	pool := NewIDPool("customers", rand.New(rand.NewSource(1)))
	pool.Reset(1, 50)

	seen := make(map[int]bool)
	for i := 0; i < 50; i++ {
		id, err := pool.Take()
		require.NoError(t, err)
		assert.False(t, seen[id], "id %d handed out twice", id)
		assert.True(t, id >= 1 && id <= 50)
		seen[id] = true
	}
	assert.Equal(t, 0, pool.Len())

	_, err := pool.Take()
	assert.True(t, errors.Is(err, ErrPoolExhausted))
	_, err = pool.Pick()
	assert.True(t, errors.Is(err, ErrPoolExhausted))
	assert.Contains(t, err.Error(), "customers")
}

func TestIDPool_PickKeepsID(t *testing.T) {
	pool := NewIDPool("accounts", rand.New(rand.NewSource(2)))
	pool.Reset(11, 20)

	for i := 0; i < 100; i++ {
		id, err := pool.Pick()
		require.NoError(t, err)
		assert.True(t, id >= 11 && id <= 20)
	}
	assert.Equal(t, 10, pool.Len())
}

func TestIDPool_ResetReplacesContents(t *testing.T) {
	pool := NewIDPool("accounts", rand.New(rand.NewSource(3)))
	pool.Reset(1, 5)
	_, _ = pool.Take()
	pool.Reset(101, 103)

	assert.Equal(t, 3, pool.Len())
	id, err := pool.Pick()
	require.NoError(t, err)
	assert.True(t, id >= 101 && id <= 103)
}

func TestGenerator_EveryEndpointHasABody(t *testing.T) {
	g := NewGenerator(100, 42)
	for _, endpoint := range config.OrderedEndpoints {
		body, err := g.Body(endpoint)
		require.NoError(t, err, endpoint)
		assert.NotEmpty(t, body, endpoint)
	}
}

func TestGenerator_BodyShapes(t *testing.T) {
	g := NewGenerator(100, 7)

	body, err := g.Body(config.CreateCustomer)
	require.NoError(t, err)
	assert.Contains(t, names, body["customerName"])
	assert.Regexp(t, regexp.MustCompile(`^[a-z]{8}@(gmail|yahoo|hotmail|outlook)\.com$`), body["customerEmail"])

	body, err = g.Body(config.TransferAmount)
	require.NoError(t, err)
	assert.Contains(t, body, "senderID")
	assert.Contains(t, body, "receiverID")
	amount := body["amount"].(int)
	assert.True(t, amount >= 1 && amount <= 1000)

	body, err = g.Body(config.GetBalanceHistory)
	require.NoError(t, err)
	records := body["numberOfRecords"].(int)
	assert.True(t, records >= 1 && records <= 10)

	body, err = g.Body(config.Notify)
	require.NoError(t, err)
	assert.Len(t, body, 3)
}

func TestGenerator_TakeEndpointsConsumePools(t *testing.T) {
	g := NewGenerator(3, 9)

	for i := 0; i < 3; i++ {
		_, err := g.Body(config.CreateAccount)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, g.Customers.Len())

	_, err := g.Body(config.GetCustomer)
	assert.True(t, errors.Is(err, ErrPoolExhausted))

	_, err = g.Body(config.DeleteAccount)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Accounts.Len())
}

func TestGenerator_UnknownEndpoint(t *testing.T) {
	g := NewGenerator(1, 1)
	_, err := g.Body("openVault")
	assert.True(t, errors.Is(err, ErrUnknownEndpoint))
}

func TestGenerator_SeedIsDeterministic(t *testing.T) {
	a := NewGenerator(1000, 99)
	b := NewGenerator(1000, 99)
	for i := 0; i < 20; i++ {
		ba, err := a.Body(config.TransferAmount)
		require.NoError(t, err)
		bb, err := b.Body(config.TransferAmount)
		require.NoError(t, err)
		assert.Equal(t, ba, bb)
	}
}
