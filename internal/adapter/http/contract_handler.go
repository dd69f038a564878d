package http

import (
	"errors"
	"net/http"
	"time"

	"rentfi-backend/internal/domain/contract"
	marketuc "rentfi-backend/internal/usecase/marketplace"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ContractHandler struct{ uc *marketuc.Usecase }

func NewContractHandler(uc *marketuc.Usecase) *ContractHandler { return &ContractHandler{uc: uc} }

type onboardContractReq struct {
	OwnerID        string `json:"owner_id"     validate:"required,hex32"`
	TenantID       string `json:"tenant_id"    validate:"required,hex32"`
	OwnerWallet    string `json:"owner_wallet" validate:"required,wallet"`
	City           string `json:"city"         validate:"required,max=64"`
	TenantScore    int    `json:"tenant_score" validate:"gte=0,lte=1000"`
	MonthlyRent    string `json:"monthly_rent" validate:"required,amount"`
	StartDate      string `json:"start_date"   validate:"required,datetime=2006-01-02"`
	DurationMonths int    `json:"duration_months" validate:"required,gte=1,lte=120"`
}

func (h *ContractHandler) Onboard(c echo.Context) error {
	var req onboardContractReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	rent, _ := decimal.NewFromString(req.MonthlyRent)
	start, _ := time.Parse("2006-01-02", req.StartDate)

	out, err := h.uc.OnboardContract(c.Request().Context(), marketuc.OnboardContractInput{
		OwnerID:        req.OwnerID,
		TenantID:       req.TenantID,
		OwnerWallet:    req.OwnerWallet,
		City:           req.City,
		TenantScore:    req.TenantScore,
		MonthlyRent:    rent,
		StartDate:      start,
		DurationMonths: req.DurationMonths,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *ContractHandler) Get(c echo.Context) error {
	out, err := h.uc.GetContract(c.Request().Context(), c.Param("contract_id"))
	if err != nil {
		if errors.Is(err, contract.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}
