package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Prem931993/buytown-sub000/internal/delivery"
	"github.com/Prem931993/buytown-sub000/pkg/config"
	"github.com/Prem931993/buytown-sub000/pkg/db"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	"github.com/Prem931993/buytown-sub000/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		App:           config.AppConfig{Env: "test", Port: "0"},
		Checkout:      config.CheckoutConfig{OrderNumberPrefix: "BYT", MaxItemsPerCart: 10},
		Delivery:      config.DeliveryConfig{StaticDistanceKm: "4"},
		Payments:      config.PaymentsConfig{Currency: "INR"},
		Notifications: config.NotificationsConfig{Driver: config.NotificationDriverLog},
	}
}

func openDB(t *testing.T) *db.Client {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:engine_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	return db.Wrap(conn)
}

func TestNewWiresServicesWithoutGateways(t *testing.T) {
	e, err := New(context.Background(), Params{
		Config:   testConfig(),
		Logger:   logger.Nop(),
		DB:       openDB(t),
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	defer e.Close()

	require.NotNil(t, e.Cart)
	require.NotNil(t, e.Checkout)
	require.NotNil(t, e.Orders)
	require.NotNil(t, e.Payments)
	require.NotNil(t, e.Delivery)

	_, err = e.Payments.CreateGatewayOrder(context.Background(), enums.PaymentGatewayStripe, uuid.New(), uuid.New())
	require.Error(t, err, "unconfigured gateway must be rejected")
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(context.Background(), Params{Logger: logger.Nop(), DB: openDB(t)})
	require.Error(t, err)
	_, err = New(context.Background(), Params{Config: testConfig(), DB: openDB(t)})
	require.Error(t, err)
	_, err = New(context.Background(), Params{Config: testConfig(), Logger: logger.Nop()})
	require.Error(t, err)
}

func TestNewRejectsKafkaWithoutBrokers(t *testing.T) {
	cfg := testConfig()
	cfg.Notifications.Driver = config.NotificationDriverKafka
	_, err := New(context.Background(), Params{Config: cfg, Logger: logger.Nop(), DB: openDB(t)})
	require.Error(t, err)
}

func TestBuildEstimatorFallsBackToStatic(t *testing.T) {
	est := buildEstimator(context.Background(), testConfig(), logger.Nop())
	static, ok := est.(delivery.StaticEstimator)
	require.True(t, ok, "expected static estimator without maps key")
	require.Equal(t, "4", static.Distance.String())
}
