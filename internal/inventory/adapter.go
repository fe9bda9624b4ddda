package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/pkg/db/models"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
)

// Adjuster moves stock for a product or one of its variants inside the caller's transaction.
type Adjuster interface {
	DeductStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, variantID *uuid.UUID) error
	RestoreStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, variantID *uuid.UUID) error
}

// Adapter writes stock counters directly with conditional updates.
type Adapter struct {
	db *gorm.DB
}

// NewAdapter returns an adapter that falls back to db when callers pass no transaction.
func NewAdapter(db *gorm.DB) *Adapter {
	return &Adapter{db: db}
}

// DeductStock decrements stock by qty. The decrement only applies when enough
// stock remains, so concurrent deductions never drive a counter negative.
func (a *Adapter) DeductStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, variantID *uuid.UUID) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	conn := a.conn(ctx, tx)

	res := a.stockTarget(conn, productID, variantID).
		Where("stock >= ?", qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "deduct stock")
	}
	if res.RowsAffected == 1 {
		return nil
	}

	exists, err := a.exists(conn, productID, variantID)
	if err != nil {
		return err
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeNotFound, targetLabel(productID, variantID)+" not found")
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock for "+targetLabel(productID, variantID)).
		WithDetails(map[string]any{"productId": productID.String(), "requested": qty})
}

// RestoreStock increments stock by qty.
func (a *Adapter) RestoreStock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, variantID *uuid.UUID) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	conn := a.conn(ctx, tx)

	res := a.stockTarget(conn, productID, variantID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, targetLabel(productID, variantID)+" not found")
	}
	return nil
}

func (a *Adapter) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return a.db.WithContext(ctx)
}

func (a *Adapter) stockTarget(conn *gorm.DB, productID uuid.UUID, variantID *uuid.UUID) *gorm.DB {
	if variantID != nil {
		return conn.Model(&models.ProductVariant{}).
			Where("id = ? AND product_id = ?", *variantID, productID)
	}
	return conn.Model(&models.Product{}).Where("id = ?", productID)
}

func (a *Adapter) exists(conn *gorm.DB, productID uuid.UUID, variantID *uuid.UUID) (bool, error) {
	var count int64
	if err := a.stockTarget(conn.Session(&gorm.Session{NewDB: true}), productID, variantID).Count(&count).Error; err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup stock target")
	}
	return count > 0, nil
}

func targetLabel(productID uuid.UUID, variantID *uuid.UUID) string {
	if variantID != nil {
		return fmt.Sprintf("variant %s of product %s", variantID, productID)
	}
	return fmt.Sprintf("product %s", productID)
}
