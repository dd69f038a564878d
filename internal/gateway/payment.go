package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

type Charge struct {
	ChargeID string `json:"charge_id"`
	// ExternalReference is our id, echoed back by the processor in webhooks.
	ExternalReference string          `json:"external_reference"`
	Amount            decimal.Decimal `json:"amount"`
	CheckoutURL       string          `json:"checkout_url"`
}

type CreateChargeInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
	PayerID     string          `json:"payer_id"`
}

type PaymentGateway interface {
	CreateCharge(ctx context.Context, in CreateChargeInput) (*Charge, error)
}

// GatewayError tags payment-processor failures.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err) }
func (e *GatewayError) Unwrap() error { return e.Err }

// PaymentClient is a thin JSON client for the payment processor's charge API.
type PaymentClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewPaymentClient(baseURL, apiKey string, c *http.Client) *PaymentClient {
	if c == nil {
		c = http.DefaultClient
	}
	return &PaymentClient{baseURL: baseURL, apiKey: apiKey, http: c}
}

func (p *PaymentClient) CreateCharge(ctx context.Context, in CreateChargeInput) (*Charge, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, &GatewayError{Op: "create charge", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/charges", bytes.NewReader(payload))
	if err != nil {
		return nil, &GatewayError{Op: "create charge", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, &GatewayError{Op: "create charge", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, &GatewayError{Op: "create charge", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	var out Charge
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &GatewayError{Op: "create charge", Err: err}
	}
	if out.ExternalReference == "" {
		out.ExternalReference = in.Reference
	}
	return &out, nil
}
