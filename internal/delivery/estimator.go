package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Prem931993/buytown-sub000/pkg/maps"
	"github.com/Prem931993/buytown-sub000/pkg/types"
)

// Estimator derives a delivery distance for an address. Callers treat any
// error as "unknown distance".
type Estimator interface {
	Estimate(ctx context.Context, address types.Address) (decimal.Decimal, error)
}

type routeFinder interface {
	DrivingDistance(ctx context.Context, origin, destination string) (*maps.Route, error)
}

// MapsEstimator measures the driving distance from the store origin.
type MapsEstimator struct {
	routes routeFinder
	origin string
}

func NewMapsEstimator(routes routeFinder, origin string) (*MapsEstimator, error) {
	if routes == nil {
		return nil, fmt.Errorf("route finder required")
	}
	if strings.TrimSpace(origin) == "" {
		return nil, fmt.Errorf("delivery origin address required")
	}
	return &MapsEstimator{routes: routes, origin: origin}, nil
}

func (e *MapsEstimator) Estimate(ctx context.Context, address types.Address) (decimal.Decimal, error) {
	route, err := e.routes.DrivingDistance(ctx, e.origin, address.OneLine())
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(route.DistanceMeters).Div(decimal.NewFromInt(1000)).Round(2), nil
}

// StaticEstimator returns a fixed distance; zero means "ask at approval".
type StaticEstimator struct {
	Distance decimal.Decimal
}

func (e StaticEstimator) Estimate(context.Context, types.Address) (decimal.Decimal, error) {
	if !e.Distance.IsPositive() {
		return decimal.Zero, fmt.Errorf("no static distance configured")
	}
	return e.Distance, nil
}
