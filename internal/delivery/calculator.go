// Package delivery prices deliveries from vehicle tiers and distance.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

// Quote is the breakdown of one delivery charge.
type Quote struct {
	VehicleID             uuid.UUID       `json:"vehicle_id"`
	VehicleType           string          `json:"vehicle_type"`
	BaseCharge            decimal.Decimal `json:"base_charge"`
	AdditionalChargePerKm decimal.Decimal `json:"additional_charge_per_km"`
	MaxDistanceKm         decimal.Decimal `json:"max_distance_km"`
	DistanceKm            decimal.Decimal `json:"distance_km"`
	TotalCharge           decimal.Decimal `json:"total_charge"`
}

// Calculator computes delivery charges. The result depends only on the tier
// row and the distance.
type Calculator struct {
	vehicles VehicleRepository
}

func NewCalculator(vehicles VehicleRepository) (*Calculator, error) {
	if vehicles == nil {
		return nil, fmt.Errorf("vehicle repository required")
	}
	return &Calculator{vehicles: vehicles}, nil
}

// Calculate returns the delivery quote for vehicleID over distanceKm.
func (c *Calculator) Calculate(ctx context.Context, vehicleID uuid.UUID, distanceKm decimal.Decimal) (*Quote, error) {
	return c.calculate(ctx, c.vehicles, vehicleID, distanceKm)
}

// CalculateTx is Calculate reading the tier through tx.
func (c *Calculator) CalculateTx(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, distanceKm decimal.Decimal) (*Quote, error) {
	return c.calculate(ctx, c.vehicles.WithTx(tx), vehicleID, distanceKm)
}

func (c *Calculator) calculate(ctx context.Context, vehicles VehicleRepository, vehicleID uuid.UUID, distanceKm decimal.Decimal) (*Quote, error) {
	if !distanceKm.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid distance").
			WithDetails(map[string]any{"distance_km": distanceKm.String()})
	}

	vehicle, err := vehicles.FindActive(ctx, vehicleID)
	if errors.Is(err, ErrVehicleNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vehicle")
	}

	return Price(vehicle, distanceKm), nil
}

// Price applies a tier to a distance without touching storage.
func Price(vehicle *models.Vehicle, distanceKm decimal.Decimal) *Quote {
	total := vehicle.BaseCharge
	if distanceKm.GreaterThan(vehicle.MaxDistanceKm) {
		extra := distanceKm.Sub(vehicle.MaxDistanceKm).Mul(vehicle.AdditionalChargePerKm)
		total = total.Add(extra)
	}

	return &Quote{
		VehicleID:             vehicle.ID,
		VehicleType:           vehicle.Name,
		BaseCharge:            vehicle.BaseCharge,
		AdditionalChargePerKm: vehicle.AdditionalChargePerKm,
		MaxDistanceKm:         vehicle.MaxDistanceKm,
		DistanceKm:            distanceKm,
		TotalCharge:           total.Round(2),
	}
}
