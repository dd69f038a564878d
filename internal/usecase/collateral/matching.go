package collateral

import (
	"context"
	"math"
	"sort"

	domain "rentfi-backend/internal/domain/collateral"
	"rentfi-backend/internal/infrastructure/cache"

	"github.com/shopspring/decimal"
)

// Scoring weights for guarantor matching.
const (
	creditWeight      = 40.0
	marginWeight      = 30.0
	valueWeight       = 20.0
	utilizationWeight = 10.0

	defaultMatchLimit = 10
)

type GuarantorMatch struct {
	PropertyID      string          `json:"property_id"`
	OwnerID         string          `json:"owner_id"`
	City            string          `json:"city"`
	AvailableMargin decimal.Decimal `json:"available_margin"`
	Score           float64         `json:"score"`
	Risk            string          `json:"risk"`
}

// FindMatchingGuarantors ranks guarantor properties able to back a guarantee
// of `required`. Blocked properties and those without enough margin never
// reach scoring.
func (u *Usecase) FindMatchingGuarantors(ctx context.Context, required decimal.Decimal, tenantScore int) ([]GuarantorMatch, error) {
	if required.Sign() <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	props, err := u.repo.ListUnblockedProperties(ctx)
	if err != nil {
		return nil, err
	}

	matches := make([]GuarantorMatch, 0, len(props))
	for i := range props {
		p := &props[i]
		active, err := u.repo.ListActivePledges(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		margin := domain.AvailableMargin(p, active)
		if margin.Cmp(required) < 0 {
			continue
		}

		score := matchScore(p, margin, required)
		matches = append(matches, GuarantorMatch{
			PropertyID:      p.PropertyID,
			OwnerID:         p.OwnerID,
			City:            p.City,
			AvailableMargin: margin.Round(2),
			Score:           score,
			Risk:            riskLabel(score, tenantScore),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	limit := u.settings.Int(ctx, cache.SettingMatchLimit, defaultMatchLimit)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func matchScore(p *domain.GuarantorProperty, margin, required decimal.Decimal) float64 {
	req := required.InexactFloat64()
	capacity := p.Capacity().InexactFloat64()
	pledged := capacity - margin.InexactFloat64()

	// credit: linear in guarantor score, up to 40 pts
	credit := math.Min(creditWeight, float64(p.GuarantorScore)/1000.0*creditWeight)
	// margin comfort: saturates at 3× the required amount
	comfort := math.Min(marginWeight, margin.InexactFloat64()/(3.0*req)*marginWeight)
	// property value ratio: saturates at 5× the required amount
	value := math.Min(valueWeight, p.AppraisedValue.InexactFloat64()/(5.0*req)*valueWeight)
	// utilization: full points for an untouched property
	utilization := 0.0
	if capacity > 0 {
		utilization = (1.0 - pledged/capacity) * utilizationWeight
	}
	if utilization < 0 {
		utilization = 0
	}

	return math.Round((credit+comfort+value+utilization)*100) / 100
}

func riskLabel(score float64, tenantScore int) string {
	switch {
	case score >= 75 && tenantScore >= 700:
		return "low"
	case score >= 50 && tenantScore >= 600:
		return "medium"
	default:
		return "high"
	}
}
