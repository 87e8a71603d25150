package config

import "fmt"

// Endpoint names exposed by the gateway
const (
	CreateCustomer           = "createCustomer"
	DeleteCustomer           = "deleteCustomer"
	GetCustomer              = "getCustomer"
	CreateAccount            = "createAccount"
	DeleteAccount            = "deleteAccount"
	DeleteAccountsByCustomer = "deleteAccountsByCustomer"
	GetAccount               = "getAccount"
	GetAccountsByCustomer    = "getAccountsByCustomer"
	AddToBalance             = "addToBalance"
	SubtractFromBalance      = "subtractFromBalance"
	TransferAmount           = "transferAmount"
	TransferAmountAndNotify  = "transferAmountAndNotify"
	GetTransaction           = "getTransaction"
	Notify                   = "notify"
	GetNotification          = "getNotification"
	GetBalanceByCustomer     = "getBalanceByCustomer"
	GetBalanceHistory        = "getBalanceHistory"
)

// OrderedEndpoints is the run order. Deletes come last so earlier reads find data.
var OrderedEndpoints = []string{
	CreateCustomer,
	GetCustomer,
	CreateAccount,
	GetAccount,
	GetAccountsByCustomer,
	AddToBalance,
	SubtractFromBalance,
	TransferAmount,
	TransferAmountAndNotify,
	GetTransaction,
	Notify,
	GetNotification,
	GetBalanceByCustomer,
	GetBalanceHistory,
	DeleteCustomer,
	DeleteAccount,
	DeleteAccountsByCustomer,
}

// customerRestorers consume customer IDs, so the pool is refilled after them
var customerRestorers = map[string]bool{
	CreateAccount:        true,
	GetBalanceByCustomer: true,
	DeleteCustomer:       true,
	DeleteAccount:        true,
}

// IsKnownEndpoint reports whether name is one of the gateway endpoints
func IsKnownEndpoint(name string) bool {
	for _, e := range OrderedEndpoints {
		if e == name {
			return true
		}
	}
	return false
}

// RestoresCustomers reports whether the customer ID pool must be reset after endpoint runs
func RestoresCustomers(endpoint string) bool {
	return customerRestorers[endpoint]
}

// EndpointURL builds the URL of an endpoint that takes no credentials
func EndpointURL(host, endpoint string) string {
	return fmt.Sprintf("%s/%s", host, endpoint)
}

// AuthURL builds the URL of an endpoint with the user's credentials as path segments
func AuthURL(host, endpoint string, user User) string {
	return fmt.Sprintf("%s/%s/%s/%s", host, endpoint, user.ID, user.Password)
}

// URLFor returns the URL used for endpoint under the configured version and auth mode.
// Mixed mode has two URLs; this returns the valid one.
func (c *Config) URLFor(endpoint string) string {
	if c.IsNoAuth() {
		return EndpointURL(c.Host, endpoint)
	}
	if c.Auth == AuthInvalid {
		return AuthURL(c.Host, endpoint, c.Credentials.Invalid)
	}
	return AuthURL(c.Host, endpoint, c.Credentials.Valid)
}

// InvalidURLFor returns the URL of endpoint called with the invalid user
func (c *Config) InvalidURLFor(endpoint string) string {
	return AuthURL(c.Host, endpoint, c.Credentials.Invalid)
}

// FillURL returns the createAccount URL used to repopulate the database
func (c *Config) FillURL() string {
	if c.IsNoAuth() {
		return EndpointURL(c.Host, CreateAccount)
	}
	return AuthURL(c.Host, CreateAccount, c.Credentials.Valid)
}
