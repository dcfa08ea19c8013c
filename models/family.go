package models

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyFamily            = errors.New("product family has no variants")
	ErrMixedFamilyCodes       = errors.New("product family variants do not share a code")
	ErrNoMainVariant          = errors.New("product family has no main variant")
	ErrMultipleMainVariants   = errors.New("product family has more than one main variant")
	ErrDuplicateCombination   = errors.New("product family repeats a wood/cushion combination")
	ErrUnknownWoodType        = errors.New("unknown wood type")
	ErrUnknownCushionType     = errors.New("unknown cushion type")
	ErrCombinationNotOnGrid   = errors.New("combination is not on the option grid")
	ErrOverrideDuplicatesMain = errors.New("override repeats the main variant combination")
)

// ProductFamily is the set of variant rows sharing one product code, with the
// main variant singled out.
type ProductFamily struct {
	Code     string
	Main     Product
	Variants []Product
}

// NewProductFamily validates the rows and builds the aggregate. Variants keep
// their input order and include the main row.
func NewProductFamily(variants []Product) (*ProductFamily, error) {
	if len(variants) == 0 {
		return nil, ErrEmptyFamily
	}

	code := variants[0].Code
	mainIdx := -1
	seen := make(map[Combination]bool, len(variants))
	for i, v := range variants {
		if v.Code != code {
			return nil, errors.Wrapf(ErrMixedFamilyCodes, "codes %q and %q", code, v.Code)
		}
		if v.IsMainVariant {
			if mainIdx >= 0 {
				return nil, errors.Wrapf(ErrMultipleMainVariants, "code %q", code)
			}
			mainIdx = i
		}
		key := Combination{
			WoodType:    strings.ToLower(strings.TrimSpace(v.WoodType)),
			CushionType: strings.ToLower(strings.TrimSpace(v.CushionType)),
		}
		if key.WoodType != "" || key.CushionType != "" {
			if seen[key] {
				return nil, errors.Wrapf(ErrDuplicateCombination, "%s/%s", v.WoodType, v.CushionType)
			}
			seen[key] = true
		}
	}
	if mainIdx < 0 {
		return nil, errors.Wrapf(ErrNoMainVariant, "code %q", code)
	}

	return &ProductFamily{
		Code:     code,
		Main:     variants[mainIdx],
		Variants: variants,
	}, nil
}

// PriceOf returns the variant's own price, or the family price when the
// variant is unpriced.
func (f *ProductFamily) PriceOf(v Product) decimal.Decimal {
	if v.Price.IsZero() {
		return f.Main.Price
	}
	return v.Price
}

// Find returns the variant with exactly the given attributes.
func (f *ProductFamily) Find(wood, cushion string) (Product, bool) {
	for _, v := range f.Variants {
		if v.Matches(wood, cushion) {
			return v, true
		}
	}
	return Product{}, false
}

// VariantOverride carries operator-supplied values for one grid point that is
// not the main variant.
type VariantOverride struct {
	WoodType        string
	CushionType     string
	Price           decimal.Decimal
	Image           string
	CustomizedImage string
}

// BuildFamily turns a fully populated main row into the rows of a new family:
// the main row plus one sibling for every other grid point. Siblings copy the
// descriptive fields of the main row and get empty price and images unless an
// override names their combination.
func BuildFamily(main Product, overrides []VariantOverride) ([]Product, error) {
	wood, ok := CanonicalWood(main.WoodType)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownWoodType, "wood type %q", main.WoodType)
	}
	cushion, ok := CanonicalCushion(main.CushionType)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownCushionType, "cushion type %q", main.CushionType)
	}
	main.WoodType = wood
	main.CushionType = cushion
	main.IsMainVariant = true

	byCombo := make(map[Combination]VariantOverride, len(overrides))
	for _, o := range overrides {
		w, okW := CanonicalWood(o.WoodType)
		c, okC := CanonicalCushion(o.CushionType)
		if !okW || !okC {
			return nil, errors.Wrapf(ErrCombinationNotOnGrid, "%s/%s", o.WoodType, o.CushionType)
		}
		combo := Combination{WoodType: w, CushionType: c}
		if combo.WoodType == wood && combo.CushionType == cushion {
			return nil, ErrOverrideDuplicatesMain
		}
		if _, dup := byCombo[combo]; dup {
			return nil, errors.Wrapf(ErrDuplicateCombination, "%s/%s", w, c)
		}
		byCombo[combo] = o
	}

	rows := make([]Product, 0, len(WoodTypes)*len(CushionTypes))
	rows = append(rows, main)
	for _, combo := range Grid() {
		if combo.WoodType == wood && combo.CushionType == cushion {
			continue
		}
		sibling := Product{
			Name:        main.Name,
			Description: main.Description,
			Code:        main.Code,
			Theme:       main.Theme,
			Category:    main.Category,
			WoodType:    combo.WoodType,
			CushionType: combo.CushionType,
		}
		if o, ok := byCombo[combo]; ok {
			sibling.Price = o.Price
			sibling.Image = strings.TrimSpace(o.Image)
			sibling.CustomizedImage = strings.TrimSpace(o.CustomizedImage)
		}
		rows = append(rows, sibling)
	}

	if _, err := NewProductFamily(rows); err != nil {
		return nil, err
	}
	return rows, nil
}
