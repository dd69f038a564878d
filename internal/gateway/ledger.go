// Package gateway defines the external collaborators of the settlement core:
// the on-chain ledger that holds receivable tokens and the payment processor
// that charges investors. Both are reached over plain JSON/HTTP; their SDKs
// live outside this repo.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type TransferReceipt struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
}

// Ledger is the on-chain collaborator. Transfers are not cancellable once
// submitted; callers must guard against double submission themselves.
type Ledger interface {
	// MintReceivable tokenizes a contract's future rent and returns the token id.
	MintReceivable(ctx context.Context, contractID, ownerWallet string) (string, error)
	TransferToken(ctx context.Context, tokenID, from, to string) (*TransferReceipt, error)
}

// LedgerError tags on-chain failures so callers can branch with errors.As.
// Intents hitting one are moved to failed and wait for an operator; they are
// never retried automatically.
type LedgerError struct {
	Op      string
	TokenID string
	Err     error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s (token %s): %v", e.Op, e.TokenID, e.Err)
}

func (e *LedgerError) Unwrap() error { return e.Err }

// LedgerClient is a thin JSON client for the ledger sidecar.
type LedgerClient struct {
	baseURL string
	http    *http.Client
}

func NewLedgerClient(baseURL string, c *http.Client) *LedgerClient {
	if c == nil {
		c = http.DefaultClient
	}
	return &LedgerClient{baseURL: baseURL, http: c}
}

func (l *LedgerClient) MintReceivable(ctx context.Context, contractID, ownerWallet string) (string, error) {
	var out struct {
		TokenID string `json:"token_id"`
	}
	err := l.post(ctx, "/tokens/mint", map[string]string{
		"contract_id":  contractID,
		"owner_wallet": ownerWallet,
	}, &out)
	if err != nil {
		return "", &LedgerError{Op: "mint", TokenID: contractID, Err: err}
	}
	return out.TokenID, nil
}

func (l *LedgerClient) TransferToken(ctx context.Context, tokenID, from, to string) (*TransferReceipt, error) {
	var out TransferReceipt
	err := l.post(ctx, "/tokens/transfer", map[string]string{
		"token_id": tokenID,
		"from":     from,
		"to":       to,
	}, &out)
	if err != nil {
		return nil, &LedgerError{Op: "transfer", TokenID: tokenID, Err: err}
	}
	return &out, nil
}

func (l *LedgerClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := l.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
