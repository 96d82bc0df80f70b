package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Prem931993/buytown-sub000/api/controllers"
	webhookcontrollers "github.com/Prem931993/buytown-sub000/api/controllers/webhooks"
	"github.com/Prem931993/buytown-sub000/api/middleware"
	"github.com/Prem931993/buytown-sub000/internal/cart"
	checkoutsvc "github.com/Prem931993/buytown-sub000/internal/checkout"
	"github.com/Prem931993/buytown-sub000/internal/delivery"
	"github.com/Prem931993/buytown-sub000/internal/orders"
	"github.com/Prem931993/buytown-sub000/internal/payments"
	"github.com/Prem931993/buytown-sub000/pkg/config"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
	"github.com/Prem931993/buytown-sub000/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CacheStore is the redis surface the HTTP layer needs.
type CacheStore interface {
	middleware.ResponseStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type deliveryQuoter interface {
	Calculate(ctx context.Context, vehicleID uuid.UUID, distanceKm decimal.Decimal) (*delivery.Quote, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	pingers map[string]controllers.Pinger,
	cache CacheStore,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	paymentsService payments.Service,
	webhookGuard *payments.WebhookGuard,
	quoter deliveryQuoter,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/phonepe", webhookcontrollers.PaymentWebhook(enums.PaymentGatewayPhonePe, paymentsService, webhookGuard, logg))
		r.Post("/stripe", webhookcontrollers.PaymentWebhook(enums.PaymentGatewayStripe, paymentsService, webhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleCustomer, enums.RoleAdmin))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.With(
			middleware.RateLimit("checkout", cache, cfg.Checkout.RateLimit, cfg.Checkout.RateLimitWindow, logg),
			middleware.Idempotency(cache, cfg.Checkout.IdempotencyTTL, logg),
		).Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.CustomerOrderList(ordersService, logg))
			r.Get("/{orderId}", controllers.CustomerOrderDetail(ordersService, logg))
			r.Post("/{orderId}/cancel", controllers.CustomerOrderCancel(ordersService, logg))
			r.Post("/{orderId}/receive", controllers.CustomerOrderReceive(ordersService, logg))
		})

		r.Route("/payments/{gateway}", func(r chi.Router) {
			r.Post("/orders", controllers.PaymentCreateOrder(paymentsService, logg))
			r.Post("/verify", controllers.PaymentVerify(paymentsService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(ordersService, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(ordersService, logg))
			r.Post("/{orderId}/approve", controllers.AdminOrderApprove(ordersService, logg))
			r.Post("/{orderId}/reject", controllers.AdminOrderReject(ordersService, logg))
			r.Post("/{orderId}/assign", controllers.AdminOrderAssign(ordersService, logg))
			r.Post("/{orderId}/complete", controllers.AdminOrderComplete(ordersService, logg))
		})
		r.Get("/delivery/quote", controllers.AdminDeliveryQuote(quoter, logg))
		r.Post("/payments/{gateway}/verify", controllers.PaymentVerify(paymentsService, logg))
	})

	r.Route("/api/delivery/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleDeliveryPerson))

		r.Get("/orders", controllers.DeliveryOrderList(ordersService, logg))
		r.Post("/orders/{orderId}/complete", controllers.DeliveryOrderComplete(ordersService, logg))
		r.Post("/orders/{orderId}/reject", controllers.DeliveryOrderReject(ordersService, logg))
	})

	return r
}
