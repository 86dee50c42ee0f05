package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
)

type replayedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency replays responses for repeated unsafe requests carrying the
// same Idempotency-Key. The engine itself never retries or deduplicates, so
// this is the layer that protects callers from double-submitting a transfer.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := c.Get(idempotencyKeyHeader)
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
		}
		cacheKey := idempotencyPrefix + key

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		acquired, err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
		if err != nil {
			logger.Warn("idempotency cache unavailable", slog.Any("error", err))
			return c.Next()
		}
		if !acquired {
			stored, err := cache.Get(ctx, cacheKey).Result()
			if err != nil {
				return fiber.NewError(fiber.StatusConflict, "duplicate request")
			}
			if stored == inProgressMarker {
				return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
			}
			var replay replayedResponse
			if err := json.Unmarshal([]byte(stored), &replay); err != nil {
				logger.Warn("corrupt idempotency entry", slog.String("key", key), slog.Any("error", err))
				return fiber.NewError(fiber.StatusConflict, "duplicate request")
			}
			if replay.ContentType != "" {
				c.Set(fiber.HeaderContentType, replay.ContentType)
			}
			return c.Status(replay.Status).Send(replay.Body)
		}

		if err := c.Next(); err != nil {
			// Failed handlers release the slot so the caller may retry.
			cache.Del(ctx, cacheKey)
			return err
		}

		stored, err := json.Marshal(replayedResponse{
			Status:      c.Response().StatusCode(),
			ContentType: string(c.Response().Header.ContentType()),
			Body:        c.Response().Body(),
		})
		if err != nil {
			logger.Warn("encode idempotent response", slog.String("key", key), slog.Any("error", err))
			cache.Del(ctx, cacheKey)
			return nil
		}
		if err := cache.Set(ctx, cacheKey, stored, ttl).Err(); err != nil {
			logger.Warn("store idempotent response", slog.String("key", key), slog.Any("error", err))
		}
		return nil
	}
}
