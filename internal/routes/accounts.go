package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opal-pay/opal_pay/internal/wallet"
)

// RegisterAccountRoutes wires account provisioning endpoints.
func RegisterAccountRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/accounts", h.Create)
	r.Get("/accounts/:accountId", h.Get)
}
