package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opal-pay/opal_pay/internal/payments"
)

// RegisterPaymentRoutes wires the transfer endpoint.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler) {
	r.Post("/transfers", h.Transfer)
}
