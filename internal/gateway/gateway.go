// Package gateway talks to the external payment provider. Only the intent
// contract is modelled: create an intent for an amount with opaque metadata,
// later retrieve its terminal status and the metadata back.
package gateway

import "context"

// StatusSucceeded is the single terminal success status. Everything else is
// non-final or failed.
const StatusSucceeded = "succeeded"

// Intent is the provider's record of an attempted charge.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Metadata     map[string]string
}

// PaymentGateway creates and retrieves payment intents. Amounts are in the
// currency's minor unit (cents for USD).
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}
