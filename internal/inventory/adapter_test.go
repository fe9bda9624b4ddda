package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/pkg/db/dbtest"
	"github.com/risbow/risbow-backend/pkg/db/models"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
)

func seedProduct(t *testing.T, conn *gorm.DB, stock int) models.Product {
	t.Helper()
	product := models.Product{VendorID: uuid.New(), Name: "kettle", Stock: stock}
	require.NoError(t, conn.Create(&product).Error)
	return product
}

func stockOf(t *testing.T, conn *gorm.DB, model any, id uuid.UUID) int {
	t.Helper()
	var stock int
	require.NoError(t, conn.Model(model).Where("id = ?", id).Pluck("stock", &stock).Error)
	return stock
}

func TestDeductStockDecrementsProduct(t *testing.T) {
	conn := dbtest.Open(t)
	adapter := NewAdapter(conn)
	product := seedProduct(t, conn, 5)

	require.NoError(t, adapter.DeductStock(context.Background(), nil, product.ID, 2, nil))
	assert.Equal(t, 3, stockOf(t, conn, &models.Product{}, product.ID))
}

func TestDeductStockRejectsInsufficientStock(t *testing.T) {
	conn := dbtest.Open(t)
	adapter := NewAdapter(conn)
	product := seedProduct(t, conn, 1)

	err := adapter.DeductStock(context.Background(), nil, product.ID, 2, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, 1, stockOf(t, conn, &models.Product{}, product.ID))
}

func TestDeductStockUnknownProduct(t *testing.T) {
	conn := dbtest.Open(t)
	adapter := NewAdapter(conn)

	err := adapter.DeductStock(context.Background(), nil, uuid.New(), 1, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestVariantStockIsTrackedSeparately(t *testing.T) {
	conn := dbtest.Open(t)
	adapter := NewAdapter(conn)
	product := seedProduct(t, conn, 10)
	variant := models.ProductVariant{ProductID: product.ID, Name: "blue", Stock: 2}
	require.NoError(t, conn.Create(&variant).Error)

	require.NoError(t, adapter.DeductStock(context.Background(), nil, product.ID, 2, &variant.ID))
	assert.Equal(t, 0, stockOf(t, conn, &models.ProductVariant{}, variant.ID))
	assert.Equal(t, 10, stockOf(t, conn, &models.Product{}, product.ID))

	require.NoError(t, adapter.RestoreStock(context.Background(), nil, product.ID, 3, &variant.ID))
	assert.Equal(t, 3, stockOf(t, conn, &models.ProductVariant{}, variant.ID))
}

func TestDeductStockRollsBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	adapter := NewAdapter(conn)
	product := seedProduct(t, conn, 4)

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := adapter.DeductStock(context.Background(), tx, product.ID, 3, nil); err != nil {
			return err
		}
		return adapter.DeductStock(context.Background(), tx, product.ID, 3, nil)
	})
	require.Error(t, err)
	assert.Equal(t, 4, stockOf(t, conn, &models.Product{}, product.ID))
}

func TestRejectsNonPositiveQuantity(t *testing.T) {
	adapter := NewAdapter(nil)
	err := adapter.RestoreStock(context.Background(), nil, uuid.New(), 0, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
