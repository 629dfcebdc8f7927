package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrIntentNotFound is returned when an intent id is unknown to the gateway.
var ErrIntentNotFound = errors.New("payment intent not found")

// InMemoryGateway is a stand-in provider for local runs and tests. Intents
// start in requires_payment_method; SucceedIntent moves them to succeeded,
// the way a real payment confirmation would.
type InMemoryGateway struct {
	mu      sync.Mutex
	intents map[string]*Intent
}

func NewInMemoryGateway() *InMemoryGateway {
	return &InMemoryGateway{intents: make(map[string]*Intent)}
}

func (g *InMemoryGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := "pi_" + uuid.NewString()
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString(),
		Status:       "requires_payment_method",
		Metadata:     metadata,
	}
	g.intents[id] = intent
	return cloneIntent(intent), nil
}

func (g *InMemoryGateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[id]
	if !ok {
		return nil, ErrIntentNotFound
	}
	return cloneIntent(intent), nil
}

// SucceedIntent marks an intent as paid.
func (g *InMemoryGateway) SucceedIntent(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[id]
	if !ok {
		return ErrIntentNotFound
	}
	intent.Status = StatusSucceeded
	return nil
}

func cloneIntent(in *Intent) *Intent {
	out := *in
	out.Metadata = make(map[string]string, len(in.Metadata))
	for k, v := range in.Metadata {
		out.Metadata[k] = v
	}
	return &out
}
