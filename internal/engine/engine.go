// Package engine assembles the order engine services shared by the api and
// cron-worker binaries.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/Prem931993/buytown-sub000/internal/cart"
	"github.com/Prem931993/buytown-sub000/internal/checkout"
	"github.com/Prem931993/buytown-sub000/internal/delivery"
	"github.com/Prem931993/buytown-sub000/internal/inventory"
	"github.com/Prem931993/buytown-sub000/internal/notifications"
	"github.com/Prem931993/buytown-sub000/internal/ordernumber"
	"github.com/Prem931993/buytown-sub000/internal/orders"
	"github.com/Prem931993/buytown-sub000/internal/payments"
	"github.com/Prem931993/buytown-sub000/internal/tax"
	"github.com/Prem931993/buytown-sub000/internal/users"
	"github.com/Prem931993/buytown-sub000/pkg/config"
	"github.com/Prem931993/buytown-sub000/pkg/db"
	"github.com/Prem931993/buytown-sub000/pkg/kafka"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
	"github.com/Prem931993/buytown-sub000/pkg/maps"
	"github.com/Prem931993/buytown-sub000/pkg/metrics"
	"github.com/Prem931993/buytown-sub000/pkg/phonepe"
	"github.com/Prem931993/buytown-sub000/pkg/pubsub"
	"github.com/Prem931993/buytown-sub000/pkg/stripe"
)

// Params are the process-level dependencies the engine is built from.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Registry prometheus.Registerer
}

// Engine holds the wired services.
type Engine struct {
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
	Payments payments.Service
	Delivery *delivery.Calculator
	Notifier *notifications.Dispatcher

	closers []func() error
}

// New wires every service. Gateways without credentials are skipped.
func New(ctx context.Context, params Params) (*Engine, error) {
	cfg, logg, dbClient := params.Config, params.Logger, params.DB
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	if dbClient == nil {
		return nil, errors.New("database client is required")
	}

	e := &Engine{}
	orderMetrics := metrics.NewOrderMetrics(params.Registry)

	publisher, err := e.buildPublisher(ctx, cfg, logg)
	if err != nil {
		return nil, e.fail(err)
	}
	notifier, err := notifications.NewDispatcher(publisher, logg, cfg.Notifications.Timeout)
	if err != nil {
		return nil, e.fail(fmt.Errorf("notifications dispatcher: %w", err))
	}
	e.Notifier = notifier

	conn := dbClient.DB()
	ledger := inventory.NewLedger()
	userDir := users.NewService(conn)
	taxes := tax.NewService(cfg.Checkout.TaxRate())
	numbers := ordernumber.NewGenerator(ordernumber.WithPrefix(cfg.Checkout.OrderNumberPrefix))
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)

	calc, err := delivery.NewCalculator(delivery.NewVehicleRepository(conn))
	if err != nil {
		return nil, e.fail(err)
	}
	e.Delivery = calc
	estimator := buildEstimator(ctx, cfg, logg)

	e.Cart, err = cart.NewService(cartRepo, dbClient, ledger, taxes, cfg.Checkout.MaxItemsPerCart)
	if err != nil {
		return nil, e.fail(fmt.Errorf("cart service: %w", err))
	}

	e.Orders, err = orders.NewService(ordersRepo, dbClient, ledger, userDir, calc, notifier, logg,
		orders.WithEstimator(estimator),
		orders.WithMetrics(orderMetrics),
	)
	if err != nil {
		return nil, e.fail(fmt.Errorf("orders service: %w", err))
	}

	e.Checkout, err = checkout.NewService(dbClient, cartRepo, ordersRepo, ledger, numbers, taxes, estimator, notifier, orderMetrics, logg)
	if err != nil {
		return nil, e.fail(fmt.Errorf("checkout service: %w", err))
	}

	gateways, err := buildGateways(ctx, cfg, logg)
	if err != nil {
		return nil, e.fail(err)
	}
	e.Payments, err = payments.NewService(payments.NewRepository(conn), dbClient, e.Orders, gateways, notifier, logg,
		payments.WithCurrency(cfg.Payments.Currency),
		payments.WithGatewayTimeout(cfg.Payments.GatewayTimeout),
		payments.WithMetrics(orderMetrics),
		payments.WithContacts(userDir),
	)
	if err != nil {
		return nil, e.fail(fmt.Errorf("payments service: %w", err))
	}

	return e, nil
}

// Close releases publisher connections.
func (e *Engine) Close() error {
	var err error
	for i := len(e.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, e.closers[i]())
	}
	e.closers = nil
	return err
}

func (e *Engine) fail(err error) error {
	return multierr.Append(err, e.Close())
}

func (e *Engine) buildPublisher(ctx context.Context, cfg *config.Config, logg *logger.Logger) (notifications.Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Notifications.Driver)) {
	case config.NotificationDriverPubSub:
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return nil, fmt.Errorf("pubsub client: %w", err)
		}
		e.closers = append(e.closers, client.Close)
		return notifications.NewPubSubPublisher(client.NotificationPublisher())
	case config.NotificationDriverKafka:
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		e.closers = append(e.closers, producer.Close)
		return notifications.NewKafkaPublisher(producer)
	default:
		return notifications.NewLogPublisher(logg), nil
	}
}

func buildEstimator(ctx context.Context, cfg *config.Config, logg *logger.Logger) delivery.Estimator {
	static := delivery.StaticEstimator{}
	if d, err := decimal.NewFromString(strings.TrimSpace(cfg.Delivery.StaticDistanceKm)); err == nil {
		static.Distance = d
	}
	if cfg.GoogleMaps.APIKey == "" || cfg.Delivery.OriginAddress == "" {
		return static
	}

	client, err := maps.NewClient(cfg.GoogleMaps.APIKey)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "maps client unavailable, using static delivery distance")
		return static
	}
	est, err := delivery.NewMapsEstimator(client, cfg.Delivery.OriginAddress)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "maps estimator unavailable, using static delivery distance")
		return static
	}
	return est
}

func buildGateways(ctx context.Context, cfg *config.Config, logg *logger.Logger) ([]payments.Gateway, error) {
	var gateways []payments.Gateway

	if cfg.PhonePe.Enabled() {
		client, err := phonepe.NewClient(cfg.PhonePe)
		if err != nil {
			return nil, fmt.Errorf("phonepe client: %w", err)
		}
		gw, err := payments.NewPhonePeGateway(client)
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, gw)
	}

	if cfg.Stripe.APIKey != "" {
		client, err := stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return nil, fmt.Errorf("stripe client: %w", err)
		}
		gw, err := payments.NewStripeGateway(client)
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, gw)
	}

	if len(gateways) == 0 {
		logg.Warn(ctx, "no payment gateways configured; online payment methods will be rejected")
	}
	return gateways, nil
}
