package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/apparel_shop/internal/models"
)

func (r *GormRepo) GetVariant(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var v models.ProductVariant
	if err := r.DB.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *GormRepo) GetVariants(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ProductVariant, error) {
	var rows []models.ProductVariant
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.ProductVariant, len(rows))
	for _, v := range rows {
		out[v.ID] = v
	}
	return out, nil
}

func (r *GormRepo) CreateVariant(ctx context.Context, v *models.ProductVariant) error {
	return r.DB.WithContext(ctx).Create(v).Error
}

// ReserveStock is a single guarded decrement; false means the variant is
// missing, inactive, or short.
func (r *GormRepo) ReserveStock(ctx context.Context, variantID uuid.UUID, qty int64) (bool, error) {
	return CompareAndDecrement(ctx, r.DB, &models.ProductVariant{}, variantID, "stock", qty, 0,
		Where("is_active = ?", true))
}

func (r *GormRepo) RestoreStock(ctx context.Context, variantID uuid.UUID, qty int64) (bool, error) {
	return CompareAndAdd(ctx, r.DB, &models.ProductVariant{}, variantID, "stock", qty)
}

func (r *GormRepo) GetAddress(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var a models.Address
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) CreateAddress(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *GormRepo) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	if err := r.DB.WithContext(ctx).First(&pm, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pm, nil
}

// EnsurePaymentMethod inserts pm unless its code already exists and loads
// the stored row into pm.
func (r *GormRepo) EnsurePaymentMethod(ctx context.Context, pm *models.PaymentMethod) error {
	return r.DB.WithContext(ctx).
		Where(models.PaymentMethod{Code: pm.Code}).
		Attrs(models.PaymentMethod{Name: pm.Name, Kind: pm.Kind, IsActive: pm.IsActive}).
		FirstOrCreate(pm).Error
}
