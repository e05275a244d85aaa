// Package payment confirms purchase references against the external payment
// gateway. The gateway's internals are out of scope: the adapter only asks
// "did this reference settle, and for how much".
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Verification is the gateway's answer for one reference.
type Verification struct {
	Reference string // the reference that was checked
	Amount    int64  // settled amount in minor units
	Currency  string // settlement currency
}

// Verifier confirms a payment reference with the gateway.
type Verifier interface {
	Verify(ctx context.Context, reference string) (Verification, error)
}

// Paystack talks to the Paystack transaction-verify endpoint using the
// account's secret key.
type Paystack struct {
	baseURL   string
	secretKey string
	client    *http.Client
}

// NewPaystack builds the adapter. baseURL defaults to the public API when
// empty; tests point it at a local server.
func NewPaystack(baseURL, secretKey string) *Paystack {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &Paystack{
		baseURL:   baseURL,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

// Verify implements Verifier. A reference counts as settled only when the
// gateway answers 200 with status=true and data.status == "success".
func (p *Paystack) Verify(ctx context.Context, reference string) (Verification, error) {
	u := fmt.Sprintf("%s/transaction/verify/%s", p.baseURL, url.PathEscape(reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Verification{}, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return Verification{}, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Verification{}, fmt.Errorf("gateway returned %d", resp.StatusCode)
	}
	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Verification{}, fmt.Errorf("gateway response: %w", err)
	}
	if !body.Status || body.Data.Status != "success" {
		return Verification{}, fmt.Errorf("payment not successful: %s", body.Message)
	}
	return Verification{
		Reference: reference,
		Amount:    body.Data.Amount,
		Currency:  body.Data.Currency,
	}, nil
}
