package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBaseFineMonths caps the contractual early-exit fine.
const DefaultBaseFineMonths = 3

var ErrInvalidTermination = errors.New("pricing: termination needs a positive rent and duration")

type TerminationInput struct {
	MonthlyRent    decimal.Decimal
	StartDate      time.Time
	DurationMonths int
	// ReceivableSold marks contracts whose future rent was already sold to an
	// investor; terminating those can leave the owner in debt.
	ReceivableSold bool
}

type TerminationCalculation struct {
	ElapsedMonths   int             `json:"elapsed_months"`
	RemainingMonths int             `json:"remaining_months"`
	Fine            decimal.Decimal `json:"fine"`
	// TerminationPayout is what the exiting tenant pays in.
	TerminationPayout decimal.Decimal `json:"termination_payout"`
	// InvestorTotalOwed is the sum of unpaid future months still owed to the
	// receivable's buyer. Zero when the receivable was never sold.
	InvestorTotalOwed decimal.Decimal `json:"investor_total_owed"`
	HasShortfall      bool            `json:"has_shortfall"`
	// OwnerDebt is the uncovered remainder billed to the owner when the
	// payout cannot make the investor whole.
	OwnerDebt decimal.Decimal `json:"owner_debt"`
}

// CalculateTermination prices an early exit. The fine is
// min(baseFineMonths, remaining) × rent × remaining/duration, shrinking
// proportionally as the contract matures.
func CalculateTermination(in TerminationInput, exitDate time.Time, baseFineMonths int) (*TerminationCalculation, error) {
	if in.DurationMonths <= 0 || in.MonthlyRent.Sign() <= 0 {
		return nil, ErrInvalidTermination
	}
	if baseFineMonths <= 0 {
		baseFineMonths = DefaultBaseFineMonths
	}

	elapsed := monthsBetween(in.StartDate, exitDate)
	if elapsed > in.DurationMonths {
		elapsed = in.DurationMonths
	}
	remaining := in.DurationMonths - elapsed

	fineMonths := baseFineMonths
	if remaining < fineMonths {
		fineMonths = remaining
	}
	ratio := decimal.NewFromInt(int64(remaining)).DivRound(decimal.NewFromInt(int64(in.DurationMonths)), 8)
	fine := decimal.NewFromInt(int64(fineMonths)).Mul(in.MonthlyRent).Mul(ratio).Round(2)

	calc := &TerminationCalculation{
		ElapsedMonths:     elapsed,
		RemainingMonths:   remaining,
		Fine:              fine,
		TerminationPayout: fine,
		InvestorTotalOwed: decimal.Zero,
		OwnerDebt:         decimal.Zero,
	}
	if in.ReceivableSold {
		calc.InvestorTotalOwed = in.MonthlyRent.Mul(decimal.NewFromInt(int64(remaining))).Round(2)
		if calc.TerminationPayout.Cmp(calc.InvestorTotalOwed) < 0 {
			calc.HasShortfall = true
			calc.OwnerDebt = calc.InvestorTotalOwed.Sub(calc.TerminationPayout)
		}
	}
	return calc, nil
}

// monthsBetween counts whole months from `from` to `to`, never negative.
func monthsBetween(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	m := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		m--
	}
	if m < 0 {
		m = 0
	}
	return m
}
