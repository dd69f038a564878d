package http

import (
	"errors"
	"net/http"

	"rentfi-backend/internal/infrastructure/cache"
	"rentfi-backend/internal/pricing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// PricingHandler serves rent quotes. Quotes are pure calculations; nothing
// is persisted until a contract is onboarded with the quoted rent.
type PricingHandler struct {
	settings cache.Settings
}

func NewPricingHandler(settings cache.Settings) *PricingHandler {
	return &PricingHandler{settings: settings}
}

type rentQuoteReq struct {
	OwnerNetRequest string `json:"owner_net_request" validate:"required,amount"`
	HasAgency       bool   `json:"has_agency"`
	AgencyRate      string `json:"agency_rate"  validate:"omitempty,numeric"`
	AgencyModel     string `json:"agency_model" validate:"omitempty,oneof=DEDUCT_FROM_OWNER ADD_ON_PRICE"`
}

func (h *PricingHandler) QuoteRent(c echo.Context) error {
	var req rentQuoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	ownerNet, _ := decimal.NewFromString(req.OwnerNetRequest)
	in := pricing.GrossUpInput{
		OwnerNetRequest: ownerNet,
		HasAgency:       req.HasAgency,
		AgencyModel:     pricing.AgencyModel(req.AgencyModel),
		InsuranceFee:    h.settings.Decimal(c.Request().Context(), cache.SettingInsuranceFee, pricing.DefaultInsuranceFee),
	}
	if req.AgencyRate != "" {
		rate, err := decimal.NewFromString(req.AgencyRate)
		if err != nil {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "invalid agency_rate"})
		}
		in.AgencyRate = rate
	}
	if in.HasAgency && in.AgencyModel == "" {
		in.AgencyModel = pricing.AgencyDeductFromOwner
	}

	breakdown, err := pricing.GrossUpRent(in)
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrInvalidNetRequest),
			errors.Is(err, pricing.ErrInvalidAgencyRate):
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		case errors.Is(err, pricing.ErrRoundingInvariant):
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, breakdown)
}
