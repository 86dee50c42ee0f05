package payments

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

// Handler exposes the transfer endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a transfer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	FromWalletID string `json:"from_wallet_id"`
	FromCurrency string `json:"from_currency"`
	ToWalletID   string `json:"to_wallet_id"`
	ToCurrency   string `json:"to_currency"`
	Amount       string `json:"amount"`
}

type transferResponse struct {
	TransactionID string `json:"transaction_id"`
	FromWalletID  string `json:"from_wallet_id"`
	FromBalance   string `json:"from_balance"`
	FromCurrency  string `json:"from_currency"`
	ToWalletID    string `json:"to_wallet_id"`
	ToBalance     string `json:"to_balance"`
	ToCurrency    string `json:"to_currency"`
	CompletedAt   string `json:"completed_at"`
}

// Transfer processes a wallet-to-wallet money move.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	input, err := req.toInput()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	res, err := h.service.Transfer(c.UserContext(), input)
	if err != nil {
		return ledgerError(err)
	}

	return c.Status(http.StatusCreated).JSON(transferResponse{
		TransactionID: res.TransactionID.String(),
		FromWalletID:  res.FromWalletID.String(),
		FromBalance:   res.FromBalance.String(),
		FromCurrency:  string(res.FromCurrency),
		ToWalletID:    res.ToWalletID.String(),
		ToBalance:     res.ToBalance.String(),
		ToCurrency:    string(res.ToCurrency),
		CompletedAt:   res.CompletedAt.Format(time.RFC3339Nano),
	})
}

func (req transferRequest) toInput() (ledger.TransferInput, error) {
	fromID, err := uuid.Parse(req.FromWalletID)
	if err != nil {
		return ledger.TransferInput{}, errors.New("invalid from_wallet_id")
	}
	toID, err := uuid.Parse(req.ToWalletID)
	if err != nil {
		return ledger.TransferInput{}, errors.New("invalid to_wallet_id")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return ledger.TransferInput{}, errors.New("invalid amount")
	}
	return ledger.TransferInput{
		FromWalletID: fromID,
		FromCurrency: money.Currency(req.FromCurrency),
		ToWalletID:   toID,
		ToCurrency:   money.Currency(req.ToCurrency),
		Amount:       amount,
	}, nil
}

// ledgerError maps engine failures to HTTP errors.
func ledgerError(err error) error {
	var notFound *ledger.WalletNotFoundError
	var maxAmount *ledger.MaxAmountExceededError
	var insufficient *ledger.InsufficientFundsError
	switch {
	case errors.Is(err, ledger.ErrInvalidRequest):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.As(err, &maxAmount):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &insufficient):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
