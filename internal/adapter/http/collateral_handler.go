package http

import (
	"errors"
	"net/http"
	"time"

	collateralDomain "rentfi-backend/internal/domain/collateral"
	collateraluc "rentfi-backend/internal/usecase/collateral"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CollateralHandler struct{ uc *collateraluc.Usecase }

func NewCollateralHandler(uc *collateraluc.Usecase) *CollateralHandler {
	return &CollateralHandler{uc: uc}
}

type registerPropertyReq struct {
	OwnerID        string `json:"owner_id"        validate:"required,hex32"`
	City           string `json:"city"            validate:"required"`
	AppraisedValue string `json:"appraised_value" validate:"required,amount"`
	GuarantorScore int    `json:"guarantor_score" validate:"gte=0,lte=1000"`
}

func (h *CollateralHandler) RegisterProperty(c echo.Context) error {
	var req registerPropertyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	value, _ := decimal.NewFromString(req.AppraisedValue)

	p, err := h.uc.RegisterProperty(c.Request().Context(), collateraluc.RegisterPropertyInput{
		OwnerID:        req.OwnerID,
		City:           req.City,
		AppraisedValue: value,
		GuarantorScore: req.GuarantorScore,
	})
	if err != nil {
		return collateralError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

type createPledgeReq struct {
	PropertyID string `json:"property_id" validate:"required,hex32"`
	ContractID string `json:"contract_id" validate:"required,hex32"`
	Amount     string `json:"amount"      validate:"required,amount"`
	EndDate    string `json:"end_date"    validate:"required,datetime=2006-01-02"`
}

func (h *CollateralHandler) CreatePledge(c echo.Context) error {
	var req createPledgeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	amount, _ := decimal.NewFromString(req.Amount)
	endDate, _ := time.Parse("2006-01-02", req.EndDate)

	dto, err := h.uc.Pledge(c.Request().Context(), collateraluc.PledgeInput{
		PropertyID: req.PropertyID,
		ContractID: req.ContractID,
		Amount:     amount,
		EndDate:    endDate,
	})
	if err != nil {
		return collateralError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *CollateralHandler) ReleasePledge(c echo.Context) error {
	pledgeID := c.Param("pledge_id")
	if pledgeID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing pledge_id path param"})
	}
	released, err := h.uc.Release(c.Request().Context(), pledgeID)
	if err != nil {
		return collateralError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"released_amount": released.StringFixed(2)})
}

func (h *CollateralHandler) GuarantorSummary(c echo.Context) error {
	ownerID := c.Param("owner_id")
	if ownerID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing owner_id path param"})
	}
	out, err := h.uc.Summary(c.Request().Context(), ownerID)
	if err != nil {
		return collateralError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"properties": out})
}

func (h *CollateralHandler) MatchGuarantors(c echo.Context) error {
	rawAmount := c.QueryParam("amount")
	if rawAmount == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing amount query param"})
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid amount"})
	}
	tenantScore := 0
	if raw := c.QueryParam("tenant_score"); raw != "" {
		if err := echo.QueryParamsBinder(c).Int("tenant_score", &tenantScore).BindError(); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid tenant_score"})
		}
	}

	matches, err := h.uc.FindMatchingGuarantors(c.Request().Context(), amount, tenantScore)
	if err != nil {
		return collateralError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"matches": matches, "count": len(matches)})
}

func collateralError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, collateralDomain.ErrPropertyNotFound),
		errors.Is(err, collateralDomain.ErrPledgeNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, collateralDomain.ErrMarginExceeded),
		errors.Is(err, collateralDomain.ErrDuplicatePledge),
		errors.Is(err, collateralDomain.ErrPropertyBlocked):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, collateralDomain.ErrInvalidAmount):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
