package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLedgerClient_MintAndTransfer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Path {
		case "/tokens/mint":
			if body["contract_id"] != "ct-1" || body["owner_wallet"] != "0xowner" {
				t.Fatalf("mint body: %v", body)
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"token_id": "tok-1"})
		case "/tokens/transfer":
			if body["token_id"] != "tok-1" || body["from"] != "0xowner" || body["to"] != "0xbuyer" {
				t.Fatalf("transfer body: %v", body)
			}
			_ = json.NewEncoder(w).Encode(TransferReceipt{TxHash: "0xdeadbeef", BlockNumber: 42})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	l := NewLedgerClient(srv.URL, nil)
	ctx := context.Background()

	tok, err := l.MintReceivable(ctx, "ct-1", "0xowner")
	if err != nil || tok != "tok-1" {
		t.Fatalf("mint: %q %v", tok, err)
	}

	receipt, err := l.TransferToken(ctx, "tok-1", "0xowner", "0xbuyer")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if receipt.TxHash != "0xdeadbeef" || receipt.BlockNumber != 42 {
		t.Fatalf("receipt: %+v", receipt)
	}
}

func TestLedgerClient_ErrorTagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	l := NewLedgerClient(srv.URL, nil)
	_, err := l.TransferToken(context.Background(), "tok-1", "0xa", "0xb")
	if err == nil {
		t.Fatal("want error")
	}
	var lerr *LedgerError
	if !errors.As(err, &lerr) {
		t.Fatalf("want LedgerError, got %T", err)
	}
	if lerr.Op != "transfer" || lerr.TokenID != "tok-1" {
		t.Fatalf("tags: %+v", lerr)
	}
}

func TestPaymentClient_CreateCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/charges" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("auth header = %q", got)
		}
		var in CreateChargeInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if !in.Amount.Equal(decimal.RequireFromString("8100")) || in.Reference == "" {
			t.Fatalf("input: %+v", in)
		}
		// processor omits the echo field; the client must backfill it
		_ = json.NewEncoder(w).Encode(Charge{
			ChargeID:    "chg-1",
			Amount:      in.Amount,
			CheckoutURL: "https://pay.example/chg-1",
		})
	}))
	defer srv.Close()

	p := NewPaymentClient(srv.URL, "secret", nil)
	charge, err := p.CreateCharge(context.Background(), CreateChargeInput{
		Amount:    decimal.RequireFromString("8100"),
		Reference: "ref-1",
		PayerID:   "buyer-1",
	})
	if err != nil {
		t.Fatalf("create charge: %v", err)
	}
	if charge.ChargeID != "chg-1" || charge.ExternalReference != "ref-1" {
		t.Fatalf("charge: %+v", charge)
	}
}

func TestPaymentClient_ErrorTagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewPaymentClient(srv.URL, "wrong", nil)
	_, err := p.CreateCharge(context.Background(), CreateChargeInput{Reference: "ref-1"})
	var gerr *GatewayError
	if !errors.As(err, &gerr) {
		t.Fatalf("want GatewayError, got %v", err)
	}
}
