package funding

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/opal-pay/opal_pay/internal/ledger"
	"github.com/opal-pay/opal_pay/internal/money"
)

// Handler exposes the replenish endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type replenishRequest struct {
	WalletID  string `json:"wallet_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Reference string `json:"reference"`
}

type replenishResponse struct {
	TransactionID     string `json:"transaction_id"`
	WalletID          string `json:"wallet_id"`
	Balance           string `json:"balance"`
	Currency          string `json:"currency"`
	ProviderReference string `json:"provider_reference"`
	CompletedAt       string `json:"completed_at"`
}

// Replenish credits a wallet from an external funding source.
func (h *Handler) Replenish(c *fiber.Ctx) error {
	var req replenishRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid wallet_id")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}

	res, err := h.service.Replenish(c.UserContext(), ReplenishInput{
		WalletID:  walletID,
		Amount:    amount,
		Currency:  money.Currency(req.Currency),
		Reference: req.Reference,
	})
	if err != nil {
		return replenishError(err)
	}

	return c.Status(http.StatusCreated).JSON(replenishResponse{
		TransactionID:     res.TransactionID.String(),
		WalletID:          res.WalletID.String(),
		Balance:           res.Balance.String(),
		Currency:          string(res.Currency),
		ProviderReference: res.ProviderReference,
		CompletedAt:       res.CompletedAt.Format(time.RFC3339Nano),
	})
}

func replenishError(err error) error {
	var notFound *ledger.WalletNotFoundError
	var maxAmount *ledger.MaxAmountExceededError
	switch {
	case errors.Is(err, ledger.ErrInvalidRequest):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.As(err, &maxAmount):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
