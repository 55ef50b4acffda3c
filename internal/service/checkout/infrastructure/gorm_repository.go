package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"vigor/internal/service/checkout/domain"
)

// GormPromoCodeRepository is the GORM implementation of PromoCodeRepository.
type GormPromoCodeRepository struct {
	db *gorm.DB
}

func NewGormPromoCodeRepository(db *gorm.DB) *GormPromoCodeRepository {
	return &GormPromoCodeRepository{db: db}
}

func (r *GormPromoCodeRepository) FindByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	var model PromoCodeModel
	err := r.db.WithContext(ctx).Where("code = ?", domain.CanonicalCode(code)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPromoNotFound
		}
		return nil, err
	}
	return ToDomainPromoCode(&model), nil
}

func (r *GormPromoCodeRepository) Create(ctx context.Context, pc *domain.PromoCode) error {
	err := r.db.WithContext(ctx).Create(ToPromoCodeModel(pc)).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateCode
	}
	return err
}

func (r *GormPromoCodeRepository) Update(ctx context.Context, pc *domain.PromoCode) error {
	model := ToPromoCodeModel(pc)
	return r.db.WithContext(ctx).
		Model(&PromoCodeModel{}).
		Where("code_id = ?", pc.ID).
		Updates(map[string]interface{}{
			"type":                  model.Type,
			"value":                 model.Value,
			"start_date":            model.StartDate,
			"end_date":              model.EndDate,
			"max_total_uses":        model.MaxTotalUses,
			"max_uses_per_customer": model.MaxUsesPerCustomer,
			"min_purchase":          model.MinPurchase,
			"product_ids":           model.ProductIDs,
			"categories":            model.Categories,
			"active":                model.Active,
		}).Error
}

// IncrementUsage bumps the advisory counter atomically in SQL.
func (r *GormPromoCodeRepository) IncrementUsage(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&PromoCodeModel{}).
		Where("code_id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}

// GormSubscriptionRepository creates subscription rows. The unique index on
// the idempotency key turns a retried create into a read of the existing row.
type GormSubscriptionRepository struct {
	db *gorm.DB
}

func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

func (r *GormSubscriptionRepository) Create(ctx context.Context, s *domain.Subscription) (string, error) {
	err := r.db.WithContext(ctx).Create(ToSubscriptionModel(s)).Error
	if err == nil {
		return s.ID, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		var existing SubscriptionModel
		if ferr := r.db.WithContext(ctx).Where("idempotency_key = ?", s.IdempotencyKey).First(&existing).Error; ferr == nil {
			return existing.SubscriptionID, nil
		}
	}
	return "", err
}

// GormVoucherRepository creates voucher rows under the same idempotency
// contract.
type GormVoucherRepository struct {
	db *gorm.DB
}

func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

func (r *GormVoucherRepository) Create(ctx context.Context, v *domain.Voucher) (string, error) {
	err := r.db.WithContext(ctx).Create(ToVoucherModel(v)).Error
	if err == nil {
		return v.ID, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		var existing VoucherModel
		if ferr := r.db.WithContext(ctx).Where("idempotency_key = ?", v.IdempotencyKey).First(&existing).Error; ferr == nil {
			return existing.VoucherID, nil
		}
	}
	return "", err
}

// GormCustomerRepository resolves customers by email.
type GormCustomerRepository struct {
	db *gorm.DB
}

func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	var model CustomerModel
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	return ToDomainCustomer(&model), nil
}

func (r *GormCustomerRepository) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	model := &CustomerModel{CustomerID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
	err := r.db.WithContext(ctx).Create(model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.FindByEmail(ctx, c.Email)
		}
		return nil, err
	}
	return c, nil
}

// GormOrderRepository persists completed orders.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Save(ctx context.Context, o *domain.Order) error {
	return r.db.WithContext(ctx).Create(ToOrderModel(o)).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Where("order_id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return ToDomainOrder(&model), nil
}

// Migrate creates the engine's tables. Called once at startup when MySQL is
// configured.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&PromoCodeModel{},
		&SubscriptionModel{},
		&VoucherModel{},
		&CustomerModel{},
		&OrderModel{},
	)
}
