package repository

import (
	"context"

	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// ProductRepository catálogo de productos (solo lectura para el motor).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
