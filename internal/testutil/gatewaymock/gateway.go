package gatewaymock

import (
	"context"
	"errors"

	"rentfi-backend/internal/gateway"
)

var (
	_ gateway.Ledger         = (*Ledger)(nil)
	_ gateway.PaymentGateway = (*Payments)(nil)
)

var errUnimplemented = errors.New("gatewaymock: method not implemented")

// Ledger is a function-backed mock that satisfies gateway.Ledger.
type Ledger struct {
	MintReceivableFn func(ctx context.Context, contractID, ownerWallet string) (string, error)
	TransferTokenFn  func(ctx context.Context, tokenID, from, to string) (*gateway.TransferReceipt, error)
}

func (m *Ledger) MintReceivable(ctx context.Context, contractID, ownerWallet string) (string, error) {
	if m.MintReceivableFn != nil {
		return m.MintReceivableFn(ctx, contractID, ownerWallet)
	}
	return "", errUnimplemented
}

func (m *Ledger) TransferToken(ctx context.Context, tokenID, from, to string) (*gateway.TransferReceipt, error) {
	if m.TransferTokenFn != nil {
		return m.TransferTokenFn(ctx, tokenID, from, to)
	}
	return nil, errUnimplemented
}

// Payments is a function-backed mock that satisfies gateway.PaymentGateway.
type Payments struct {
	CreateChargeFn func(ctx context.Context, in gateway.CreateChargeInput) (*gateway.Charge, error)
}

func (m *Payments) CreateCharge(ctx context.Context, in gateway.CreateChargeInput) (*gateway.Charge, error) {
	if m.CreateChargeFn != nil {
		return m.CreateChargeFn(ctx, in)
	}
	return nil, errUnimplemented
}
