package bodies

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bankbench/pkg/config"
)

// ErrUnknownEndpoint is returned for endpoints without a body builder
var ErrUnknownEndpoint = errors.New("unknown endpoint")

var (
	emailDomains = []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com"}
	names        = []string{"Alice", "Bob", "Charlie", "David", "Emma", "Frank", "Grace", "Henry"}
)

const letters = "abcdefghijklmnopqrstuvwxyz"

// Body is a JSON request body
type Body map[string]any

type builder func(g *Generator) (Body, error)

// Generator produces request bodies, drawing IDs from its pools.
// It is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand

	Customers     *IDPool
	Accounts      *IDPool
	Transactions  *IDPool
	Notifications *IDPool
}

// NewGenerator creates a generator whose four pools hold IDs 1..n.
// A zero seed uses the current time.
func NewGenerator(n int, seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	g := &Generator{
		rng:           rng,
		Customers:     NewIDPool("customers", rng),
		Accounts:      NewIDPool("accounts", rng),
		Transactions:  NewIDPool("transactions", rng),
		Notifications: NewIDPool("notifications", rng),
	}
	g.Customers.Reset(1, n)
	g.Accounts.Reset(1, n)
	g.Transactions.Reset(1, n)
	g.Notifications.Reset(1, n)
	return g
}

// Intn exposes the generator's random source
func (g *Generator) Intn(n int) int {
	return g.rng.Intn(n)
}

// Email returns a random 8-letter address at a common provider
func (g *Generator) Email() string {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		sb.WriteByte(letters[g.rng.Intn(len(letters))])
	}
	sb.WriteByte('@')
	sb.WriteString(emailDomains[g.rng.Intn(len(emailDomains))])
	return sb.String()
}

// Name returns a random first name
func (g *Generator) Name() string {
	return names[g.rng.Intn(len(names))]
}

// Amount returns a random amount in [1, 1000]
func (g *Generator) Amount() int {
	return g.rng.Intn(1000) + 1
}

// NumberOfRecords returns a random history length in [1, 10]
func (g *Generator) NumberOfRecords() int {
	return g.rng.Intn(10) + 1
}

var builders = map[string]builder{
	config.CreateCustomer: func(g *Generator) (Body, error) {
		return Body{"customerName": g.Name(), "customerEmail": g.Email()}, nil
	},
	config.DeleteCustomer:           takeID("customerID", customers),
	config.GetCustomer:              pickID("customerID", customers),
	config.CreateAccount:            takeID("customerID", customers),
	config.DeleteAccount:            takeID("accountID", accounts),
	config.DeleteAccountsByCustomer: takeID("customerID", customers),
	config.GetAccount:               pickID("accountID", accounts),
	config.GetAccountsByCustomer:    pickID("customerID", customers),
	config.AddToBalance:             balanceChange,
	config.SubtractFromBalance:      balanceChange,
	config.TransferAmount:           transfer,
	config.TransferAmountAndNotify:  transfer,
	config.GetTransaction:           pickID("transactionID", transactions),
	config.Notify: func(g *Generator) (Body, error) {
		transactionID, err := g.Transactions.Pick()
		if err != nil {
			return nil, err
		}
		receiverID, err := g.Accounts.Pick()
		if err != nil {
			return nil, err
		}
		return Body{"transactionID": transactionID, "receiverID": receiverID, "amount": g.Amount()}, nil
	},
	config.GetNotification:      pickID("notificationID", notifications),
	config.GetBalanceByCustomer: takeID("customerID", customers),
	config.GetBalanceHistory: func(g *Generator) (Body, error) {
		customerID, err := g.Customers.Pick()
		if err != nil {
			return nil, err
		}
		return Body{"customerID": customerID, "numberOfRecords": g.NumberOfRecords()}, nil
	},
}

// Body builds the request body for endpoint
func (g *Generator) Body(endpoint string) (Body, error) {
	build, ok := builders[endpoint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpoint)
	}
	body, err := build(g)
	if err != nil {
		return nil, fmt.Errorf("building %s body: %w", endpoint, err)
	}
	return body, nil
}

func customers(g *Generator) *IDPool     { return g.Customers }
func accounts(g *Generator) *IDPool      { return g.Accounts }
func transactions(g *Generator) *IDPool  { return g.Transactions }
func notifications(g *Generator) *IDPool { return g.Notifications }

func pickID(field string, pool func(*Generator) *IDPool) builder {
	return func(g *Generator) (Body, error) {
		id, err := pool(g).Pick()
		if err != nil {
			return nil, err
		}
		return Body{field: id}, nil
	}
}

func takeID(field string, pool func(*Generator) *IDPool) builder {
	return func(g *Generator) (Body, error) {
		id, err := pool(g).Take()
		if err != nil {
			return nil, err
		}
		return Body{field: id}, nil
	}
}

func balanceChange(g *Generator) (Body, error) {
	accountID, err := g.Accounts.Pick()
	if err != nil {
		return nil, err
	}
	return Body{"accountID": accountID, "amount": g.Amount()}, nil
}

func transfer(g *Generator) (Body, error) {
	senderID, err := g.Accounts.Pick()
	if err != nil {
		return nil, err
	}
	receiverID, err := g.Accounts.Pick()
	if err != nil {
		return nil, err
	}
	return Body{"senderID": senderID, "receiverID": receiverID, "amount": g.Amount()}, nil
}
