package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/opal-pay/opal_pay/internal/config"
	"github.com/opal-pay/opal_pay/internal/funding"
	"github.com/opal-pay/opal_pay/internal/ledger"
	"github.com/opal-pay/opal_pay/internal/middleware"
	"github.com/opal-pay/opal_pay/internal/notification"
	"github.com/opal-pay/opal_pay/internal/payments"
	"github.com/opal-pay/opal_pay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Without a
// database the service runs on in-memory backends, which is only allowed in
// development.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var store ledger.Store
	var walletRepo wallet.Repository
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
		walletRepo = wallet.NewPostgresRepository(d.DB)
	} else {
		memStore := ledger.NewMemoryStore()
		store = memStore
		walletRepo = wallet.NewMemoryRepository(memStore)
	}

	engine := ledger.NewEngine(store, ledger.Config{MaxAmount: d.Cfg.MaxAmount})
	notifier := notification.NewLoggerNotifier(d.Logger)

	walletSvc := wallet.NewService(walletRepo)
	paymentSvc := payments.NewService(engine, notifier)
	fundingSvc := funding.NewService(engine, nil, notifier)

	api := app.Group("/api/v1")
	RegisterAccountRoutes(api, wallet.NewHandler(walletSvc))
	RegisterPaymentRoutes(api, payments.NewHandler(paymentSvc))
	RegisterFundingRoutes(api, funding.NewHandler(fundingSvc))

	return nil
}
