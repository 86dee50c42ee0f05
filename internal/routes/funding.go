package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opal-pay/opal_pay/internal/funding"
)

// RegisterFundingRoutes wires the replenish endpoint.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler) {
	r.Post("/replenishments", h.Replenish)
}
