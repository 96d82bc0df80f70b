package delivery

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Prem931993/buytown-sub000/pkg/db/models"
)

// ErrVehicleNotFound is returned when no active vehicle matches.
var ErrVehicleNotFound = errors.New("vehicle not found")

// VehicleRepository loads delivery charge tiers.
type VehicleRepository interface {
	WithTx(tx *gorm.DB) VehicleRepository
	FindActive(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	ListActive(ctx context.Context) ([]models.Vehicle, error)
}

type vehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) WithTx(tx *gorm.DB) VehicleRepository {
	if tx == nil {
		return r
	}
	return &vehicleRepository{db: tx}
}

func (r *vehicleRepository) FindActive(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&vehicle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) ListActive(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("base_charge ASC, name ASC").
		Find(&vehicles).Error
	return vehicles, err
}
