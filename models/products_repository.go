package models

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

var (
	// ErrProductNotFound is returned when a product row or family is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrFamilyExists is returned when creating a family whose code is taken.
	ErrFamilyExists = errors.New("product family already exists")
	// ErrMainVariantLocked is returned when a write would leave a family
	// without its main variant.
	ErrMainVariantLocked = errors.New("main variant cannot be demoted, moved or deleted while siblings remain")
	// ErrNoTargetFamily is returned when a non-main row is moved to a code
	// that has no main variant.
	ErrNoTargetFamily = errors.New("target product code has no main variant")
)

type ProductFilters struct {
	Theme         string
	Category      string
	PriceLessThan *float64
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// GetFilteredProducts lists main variants only, one per family.
func (r *ProductsRepository) GetFilteredProducts(ctx context.Context, offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := r.db.WithContext(ctx).Model(&Product{}).Where("is_main_variant = ?", true)

	if filters.Theme != "" {
		query = query.Where("LOWER(theme) = LOWER(?)", filters.Theme)
	}
	if filters.Category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", filters.Category)
	}
	if filters.PriceLessThan != nil {
		query = query.Where("price < ?", *filters.PriceLessThan)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count products")
	}

	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list products")
	}

	return products, total, nil
}

// GetLatest returns the newest main variants.
func (r *ProductsRepository) GetLatest(ctx context.Context, limit int) ([]Product, error) {
	var products []Product
	if err := r.db.WithContext(ctx).
		Where("is_main_variant = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list latest products")
	}
	return products, nil
}

func (r *ProductsRepository) GetThemes(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "theme")
}

func (r *ProductsRepository) GetCategories(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "category")
}

func (r *ProductsRepository) distinct(ctx context.Context, column string) ([]string, error) {
	var values []string
	if err := r.db.WithContext(ctx).Model(&Product{}).
		Where("is_main_variant = ? AND "+column+" <> ''", true).
		Distinct(column).
		Order(column).
		Pluck(column, &values).Error; err != nil {
		return nil, pkgerrors.Wrapf(err, "list distinct %s", column)
	}
	return values, nil
}

// GetFamily loads every row sharing code as a ProductFamily.
func (r *ProductsRepository) GetFamily(ctx context.Context, code string) (*ProductFamily, error) {
	var rows []Product
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "load product family")
	}
	if len(rows) == 0 {
		return nil, ErrProductNotFound
	}
	return NewProductFamily(rows)
}

func (r *ProductsRepository) GetByID(ctx context.Context, id uint) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, pkgerrors.Wrap(err, "load product")
	}
	return &product, nil
}

// CreateFamily inserts all rows of a new family in one transaction.
func (r *ProductsRepository) CreateFamily(ctx context.Context, rows []Product) error {
	family, err := NewProductFamily(rows)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&Product{}).Where("code = ?", family.Code).Count(&existing).Error; err != nil {
			return pkgerrors.Wrap(err, "check product code")
		}
		if existing > 0 {
			return ErrFamilyExists
		}
		if err := tx.Create(&rows).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrFamilyExists
			}
			return pkgerrors.Wrap(err, "insert product family")
		}
		return nil
	})
}

// Update overwrites the whole row. Promoting a row to main demotes the
// family's previous main in the same transaction.
func (r *ProductsRepository) Update(ctx context.Context, p *Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Product
		if err := tx.First(&current, p.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return pkgerrors.Wrap(err, "load product")
		}
		if current.IsMainVariant && (!p.IsMainVariant || p.Code != current.Code) {
			return ErrMainVariantLocked
		}
		if p.Code != current.Code && !p.IsMainVariant {
			var mains int64
			if err := tx.Model(&Product{}).
				Where("code = ? AND is_main_variant = ?", p.Code, true).
				Count(&mains).Error; err != nil {
				return pkgerrors.Wrap(err, "check target family")
			}
			if mains == 0 {
				return ErrNoTargetFamily
			}
		}
		if p.IsMainVariant {
			if err := tx.Model(&Product{}).
				Where("code = ? AND id <> ? AND is_main_variant = ?", p.Code, p.ID, true).
				Update("is_main_variant", false).Error; err != nil {
				return pkgerrors.Wrap(err, "demote main variant")
			}
		}
		p.CreatedAt = current.CreatedAt
		if err := tx.Save(p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateCombination
			}
			return pkgerrors.Wrap(err, "update product")
		}
		return nil
	})
}

// Delete removes one row. The main variant can only go together with its
// family, see DeleteFamily.
func (r *ProductsRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Product
		if err := tx.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return pkgerrors.Wrap(err, "load product")
		}
		if current.IsMainVariant {
			var siblings int64
			if err := tx.Model(&Product{}).Where("code = ? AND id <> ?", current.Code, current.ID).Count(&siblings).Error; err != nil {
				return pkgerrors.Wrap(err, "count siblings")
			}
			if siblings > 0 {
				return ErrMainVariantLocked
			}
		}
		if err := tx.Delete(&Product{}, id).Error; err != nil {
			return pkgerrors.Wrap(err, "delete product")
		}
		return nil
	})
}

// DeleteFamily removes every row sharing code and reports how many went.
func (r *ProductsRepository) DeleteFamily(ctx context.Context, code string) (int64, error) {
	res := r.db.WithContext(ctx).Where("code = ?", code).Delete(&Product{})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(res.Error, "delete product family")
	}
	if res.RowsAffected == 0 {
		return 0, ErrProductNotFound
	}
	return res.RowsAffected, nil
}
