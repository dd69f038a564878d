package http

import (
	"errors"
	"net/http"
	"time"

	"rentfi-backend/internal/domain/contract"
	marketDomain "rentfi-backend/internal/domain/marketplace"
	"rentfi-backend/internal/gateway"
	"rentfi-backend/internal/infrastructure/cache"
	"rentfi-backend/internal/pricing"
	settlementuc "rentfi-backend/internal/usecase/settlement"

	"github.com/labstack/echo/v4"
)

// SettleQueue is the handoff between the webhook handler and the background
// settlement worker.
type SettleQueue interface {
	Enqueue(intentID string) bool
}

type SettlementHandler struct {
	uc       *settlementuc.Usecase
	queue    SettleQueue
	settings cache.Settings
}

func NewSettlementHandler(uc *settlementuc.Usecase, queue SettleQueue, settings cache.Settings) *SettlementHandler {
	return &SettlementHandler{uc: uc, queue: queue, settings: settings}
}

type createIntentReq struct {
	BuyerID     string `json:"buyer_id"     validate:"required,hex32"`
	BuyerWallet string `json:"buyer_wallet" validate:"required,wallet"`
}

func (h *SettlementHandler) CreateIntent(c echo.Context) error {
	listingID := c.Param("listing_id")
	if listingID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing listing_id path param"})
	}
	var req createIntentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := h.uc.CreatePurchaseIntent(c.Request().Context(), settlementuc.CreateIntentInput{
		ListingID:   listingID,
		BuyerID:     req.BuyerID,
		BuyerWallet: req.BuyerWallet,
	})
	if err != nil {
		return settlementError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// paymentWebhookReq mirrors the processor's payload; field names are theirs.
type paymentWebhookReq struct {
	Event             string `json:"event"`
	PaymentID         string `json:"paymentId"`
	ExternalReference string `json:"externalReference"`
}

// PaymentWebhook always acks with 200 so the processor stops retrying; the
// actual settlement runs on the worker. Unknown events and unknown charges
// are acked too.
func (h *SettlementHandler) PaymentWebhook(c echo.Context) error {
	var req paymentWebhookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Event != "PAYMENT_CONFIRMED" {
		return c.JSON(http.StatusOK, map[string]any{"received": true, "handled": false})
	}

	intentID, transitioned := h.uc.OnPaymentConfirmed(c.Request().Context(), req.PaymentID, req.ExternalReference)
	if transitioned {
		h.queue.Enqueue(intentID)
	}
	return c.JSON(http.StatusOK, map[string]any{"received": true, "handled": transitioned})
}

type reprocessReq struct {
	// ID is a purchase-intent id or a gateway payment id.
	ID    string `json:"id" validate:"required"`
	Force bool   `json:"force"`
}

func (h *SettlementHandler) Reprocess(c echo.Context) error {
	var req reprocessReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := h.uc.Reprocess(c.Request().Context(), req.ID, req.Force)
	if err != nil {
		return settlementError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type terminateReq struct {
	ContractID     string `json:"contract_id" validate:"required,hex32"`
	ExitDate       string `json:"exit_date"   validate:"required,datetime=2006-01-02"`
	BaseFineMonths int    `json:"base_fine_months" validate:"gte=0,lte=12"`
}

func (h *SettlementHandler) Terminate(c echo.Context) error {
	var req terminateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	exitDate, _ := time.Parse("2006-01-02", req.ExitDate)

	baseFine := req.BaseFineMonths
	if baseFine == 0 {
		baseFine = h.settings.Int(c.Request().Context(), cache.SettingBaseFineMonths, pricing.DefaultBaseFineMonths)
	}

	res, err := h.uc.Terminate(c.Request().Context(), req.ContractID, exitDate, baseFine)
	if err != nil {
		return settlementError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func settlementError(c echo.Context, err error) error {
	var lerr *gateway.LedgerError
	var gerr *gateway.GatewayError
	switch {
	case errors.Is(err, marketDomain.ErrIntentNotFound),
		errors.Is(err, marketDomain.ErrListingNotFound),
		errors.Is(err, contract.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, marketDomain.ErrListingNotActive),
		errors.Is(err, marketDomain.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.As(err, &lerr), errors.As(err, &gerr):
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
