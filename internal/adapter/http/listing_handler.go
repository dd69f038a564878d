package http

import (
	"errors"
	"net/http"

	"rentfi-backend/internal/domain/contract"
	marketDomain "rentfi-backend/internal/domain/marketplace"
	"rentfi-backend/internal/gateway"
	"rentfi-backend/internal/pricing"
	marketuc "rentfi-backend/internal/usecase/marketplace"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ListingHandler struct{ uc *marketuc.Usecase }

func NewListingHandler(uc *marketuc.Usecase) *ListingHandler { return &ListingHandler{uc: uc} }

type createListingReq struct {
	ContractID  string `json:"contract_id"  validate:"required,hex32"`
	SellerID    string `json:"seller_id"    validate:"required,hex32"`
	AskingPrice string `json:"asking_price" validate:"required,amount"`
}

func (h *ListingHandler) CreateListing(c echo.Context) error {
	var req createListingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	asking, _ := decimal.NewFromString(req.AskingPrice)

	dto, err := h.uc.CreateListing(c.Request().Context(), marketuc.CreateListingInput{
		ContractID:  req.ContractID,
		SellerID:    req.SellerID,
		AskingPrice: asking,
	})
	if err != nil {
		return listingError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

type cancelListingReq struct {
	RequesterID string `json:"requester_id" validate:"required,hex32"`
}

func (h *ListingHandler) CancelListing(c echo.Context) error {
	listingID := c.Param("listing_id")
	if listingID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing listing_id path param"})
	}
	var req cancelListingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	if err := h.uc.CancelListing(c.Request().Context(), listingID, req.RequesterID); err != nil {
		return listingError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *ListingHandler) ListActive(c echo.Context) error {
	f := marketDomain.ListingFilter{City: c.QueryParam("city")}
	if raw := c.QueryParam("min_discount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid min_discount"})
		}
		f.MinDiscount = &d
	}
	if raw := c.QueryParam("max_discount"); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid max_discount"})
		}
		f.MaxDiscount = &d
	}
	if raw := c.QueryParam("min_tenant_score"); raw != "" {
		if err := echo.QueryParamsBinder(c).Int("min_tenant_score", &f.MinTenantScore).BindError(); err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid min_tenant_score"})
		}
	}

	rows, err := h.uc.ListActive(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "query failed"})
	}
	return c.JSON(http.StatusOK, map[string]any{"listings": rows, "count": len(rows)})
}

func (h *ListingHandler) Stats(c echo.Context) error {
	s, err := h.uc.Stats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "query failed"})
	}
	return c.JSON(http.StatusOK, s)
}

// listingError maps marketplace domain errors to HTTP status codes.
func listingError(c echo.Context, err error) error {
	var lerr *gateway.LedgerError
	switch {
	case errors.Is(err, contract.ErrNotFound), errors.Is(err, marketDomain.ErrListingNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, marketDomain.ErrNotSeller):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, marketDomain.ErrDuplicateListing),
		errors.Is(err, marketDomain.ErrListingNotOpen),
		errors.Is(err, marketDomain.ErrListingNotActive):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, pricing.ErrInvalidPrice):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.As(err, &lerr):
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}
