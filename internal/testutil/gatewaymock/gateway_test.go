package gatewaymock

import (
	"context"
	"testing"

	"rentfi-backend/internal/gateway"
)

func TestLedger_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Ledger{}

	// an unexpected chain call must fail loudly, never silently succeed
	if _, err := m.MintReceivable(ctx, "ct-1", "0xowner"); err == nil {
		t.Fatal("MintReceivable default: want error")
	}
	if _, err := m.TransferToken(ctx, "tok-1", "0xa", "0xb"); err == nil {
		t.Fatal("TransferToken default: want error")
	}
}

func TestLedger_ForwardsCalls(t *testing.T) {
	ctx := context.Background()
	m := &Ledger{
		MintReceivableFn: func(_ context.Context, contractID, ownerWallet string) (string, error) {
			if contractID != "ct-1" || ownerWallet != "0xowner" {
				t.Fatalf("args: %q %q", contractID, ownerWallet)
			}
			return "tok-1", nil
		},
	}
	tok, err := m.MintReceivable(ctx, "ct-1", "0xowner")
	if err != nil || tok != "tok-1" {
		t.Fatalf("MintReceivable: %q %v", tok, err)
	}
}

func TestPayments_Defaults(t *testing.T) {
	m := &Payments{}
	if _, err := m.CreateCharge(context.Background(), gateway.CreateChargeInput{}); err == nil {
		t.Fatal("CreateCharge default: want error")
	}
}

func TestPayments_ForwardsCalls(t *testing.T) {
	want := &gateway.Charge{ChargeID: "chg-1"}
	m := &Payments{
		CreateChargeFn: func(_ context.Context, in gateway.CreateChargeInput) (*gateway.Charge, error) {
			if in.Reference == "" {
				t.Fatal("reference not forwarded")
			}
			return want, nil
		},
	}
	got, err := m.CreateCharge(context.Background(), gateway.CreateChargeInput{Reference: "ref-1"})
	if err != nil || got != want {
		t.Fatalf("CreateCharge: %v %+v", err, got)
	}
}
