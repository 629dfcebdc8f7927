package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// StripeGateway implements PaymentGateway against the Stripe REST API.
// The API key is injected at construction, never set globally. The HTTP
// client carries an explicit timeout; a timed-out call is a failed call and
// is retried by the caller, never internally.
type StripeGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewStripeGateway(secretKey, baseURL string, timeout time.Duration) *StripeGateway {
	return &StripeGateway{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
	}
}

type stripeIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

type stripeError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	intent, err := g.do(ctx, http.MethodPost, "/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	return intent, nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	return g.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil)
}

func (g *StripeGateway) do(ctx context.Context, method, path string, body *strings.Reader) (*Intent, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, g.baseURL+path, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr stripeError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("stripe: %s (status %d)", apiErr.Error.Message, resp.StatusCode)
		}
		return nil, fmt.Errorf("stripe: status %d", resp.StatusCode)
	}

	var raw stripeIntent
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("stripe: decode response: %w", err)
	}
	return &Intent{
		ID:           raw.ID,
		ClientSecret: raw.ClientSecret,
		Status:       raw.Status,
		Metadata:     raw.Metadata,
	}, nil
}
