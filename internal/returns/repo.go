package returns

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

// Repository persists return requests and the rows hanging off them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ret *models.ReturnRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error)
	FindDetailed(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error)
	List(ctx context.Context, filters Filters) ([]models.ReturnRequest, string, error)
	HasOpenReturn(ctx context.Context, orderID uuid.UUID) (bool, error)
	FindByOrderAndStatus(ctx context.Context, orderID uuid.UUID, status enums.ReturnStatus) (*models.ReturnRequest, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to enums.ReturnStatus, extra map[string]any) (bool, error)
	AppendTimeline(ctx context.Context, entry *models.ReturnTimeline) error
	FindReplacement(ctx context.Context, returnID uuid.UUID) (*models.ReplacementOrder, error)
	CreateReplacement(ctx context.Context, link *models.ReplacementOrder) error
	UpsertQCChecklist(ctx context.Context, checklist *models.ReturnQCChecklist) (*models.ReturnQCChecklist, error)
	ProductVendorID(ctx context.Context, productID uuid.UUID) (uuid.UUID, error)
	VendorUserID(ctx context.Context, vendorID uuid.UUID) (*uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the return together with its items and timeline entries.
func (r *repository) Create(ctx context.Context, ret *models.ReturnRequest) error {
	return r.db.WithContext(ctx).Create(ret).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	var ret models.ReturnRequest
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&ret).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *repository) FindDetailed(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	var ret models.ReturnRequest
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Timeline", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Where("id = ?", id).
		First(&ret).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *repository) List(ctx context.Context, filters Filters) ([]models.ReturnRequest, string, error) {
	cursor, err := pagination.ParseCursor(filters.Cursor)
	if err != nil {
		return nil, "", err
	}
	query := r.db.WithContext(ctx).Model(&models.ReturnRequest{}).Preload("Items")
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.VendorID != nil {
		query = query.Where("vendor_id = ?", *filters.VendorID)
	}
	if filters.OrderID != nil {
		query = query.Where("order_id = ?", *filters.OrderID)
	}

	var rows []models.ReturnRequest
	if err := query.Scopes(pagination.Keyset("requested_at", cursor, filters.Limit)).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Trim(rows, filters.Limit, func(ret models.ReturnRequest) pagination.Cursor {
		return pagination.Cursor{CreatedAt: ret.RequestedAt, ID: ret.ID}
	})
	return page, next, nil
}

// HasOpenReturn reports whether the order already has a return that was not rejected.
func (r *repository) HasOpenReturn(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReturnRequest{}).
		Where("order_id = ? AND status <> ?", orderID, enums.ReturnStatusRejected).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) FindByOrderAndStatus(ctx context.Context, orderID uuid.UUID, status enums.ReturnStatus) (*models.ReturnRequest, error) {
	var ret models.ReturnRequest
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_id = ? AND status = ?", orderID, status).
		Order("requested_at DESC").
		First(&ret).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

// CompareAndSetStatus moves the return only while it is still in from.
func (r *repository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to enums.ReturnStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&models.ReturnRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) AppendTimeline(ctx context.Context, entry *models.ReturnTimeline) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindReplacement(ctx context.Context, returnID uuid.UUID) (*models.ReplacementOrder, error) {
	var link models.ReplacementOrder
	if err := r.db.WithContext(ctx).Where("return_id = ?", returnID).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repository) CreateReplacement(ctx context.Context, link *models.ReplacementOrder) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// UpsertQCChecklist keeps one checklist per order; resubmission overwrites it.
func (r *repository) UpsertQCChecklist(ctx context.Context, checklist *models.ReturnQCChecklist) (*models.ReturnQCChecklist, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"vendor_id",
				"inspector_id",
				"variant",
				"is_brand_box_intact",
				"is_product_intact",
				"is_original_packaging",
				"is_unused",
				"all_accessories_present",
				"has_physical_damage",
				"imei_match",
				"missing_accessories",
				"images",
				"notes",
				"status",
				"updated_at",
			}),
		}).
		Create(checklist).Error
	if err != nil {
		return nil, err
	}
	var stored models.ReturnQCChecklist
	if err := r.db.WithContext(ctx).Where("order_id = ?", checklist.OrderID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *repository) ProductVendorID(ctx context.Context, productID uuid.UUID) (uuid.UUID, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Select("id", "vendor_id").
		Where("id = ?", productID).
		First(&product).Error; err != nil {
		return uuid.Nil, err
	}
	return product.VendorID, nil
}

// VendorUserID returns the account linked to the vendor, or nil when none is.
func (r *repository) VendorUserID(ctx context.Context, vendorID uuid.UUID) (*uuid.UUID, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).
		Select("id", "user_id").
		Where("id = ?", vendorID).
		First(&vendor).Error; err != nil {
		return nil, err
	}
	return vendor.UserID, nil
}
