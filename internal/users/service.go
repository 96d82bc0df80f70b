// Package users answers the identity questions the order engine asks.
package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Prem931993/buytown-sub000/pkg/db/models"
	"github.com/Prem931993/buytown-sub000/pkg/enums"
	pkgerrors "github.com/Prem931993/buytown-sub000/pkg/errors"
)

// Directory looks users up by id.
type Directory interface {
	Get(ctx context.Context, conn *gorm.DB, id uuid.UUID) (*models.User, error)
	HasRole(ctx context.Context, conn *gorm.DB, id uuid.UUID, role enums.Role) (bool, error)
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) conn(conn *gorm.DB) *gorm.DB {
	if conn != nil {
		return conn
	}
	return s.db
}

// Get returns an active user. conn may be nil to use the service connection.
func (s *Service) Get(ctx context.Context, conn *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.conn(conn).WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return &user, nil
}

// HasRole reports whether id is an active user holding role.
func (s *Service) HasRole(ctx context.Context, conn *gorm.DB, id uuid.UUID, role enums.Role) (bool, error) {
	user, err := s.Get(ctx, conn, id)
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.Role == role, nil
}
