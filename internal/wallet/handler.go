package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handler exposes account provisioning HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type accountResponse struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	WalletID  string `json:"wallet_id"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
}

func toResponse(a AccountWithWallet) accountResponse {
	return accountResponse{
		AccountID: a.AccountID.String(),
		Name:      a.Name,
		CreatedAt: a.CreatedAt.Format(time.RFC3339Nano),
		WalletID:  a.WalletID.String(),
		Currency:  string(a.Currency),
		Balance:   a.Balance.String(),
	}
}

// Create opens an account with its wallet.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	account, err := h.service.Create(c.UserContext(), CreateInput{Name: req.Name, Currency: req.Currency})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(account))
}

// Get returns the account joined with its wallet.
func (h *Handler) Get(c *fiber.Ctx) error {
	accountID, err := uuid.Parse(c.Params("accountId"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid account id")
	}
	account, err := h.service.Get(c.UserContext(), accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return fiber.NewError(http.StatusNotFound, "account not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(account))
}
