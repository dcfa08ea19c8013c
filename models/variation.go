package models

import (
	"github.com/shopspring/decimal"
)

// Resolution is what the product page shows for one wood/cushion selection.
type Resolution struct {
	WoodType    string          `json:"wood_type"`
	CushionType string          `json:"cushion_type"`
	VariantID   uint            `json:"variant_id"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
}

// Initial is the display state before the visitor picks anything: the main
// variant's own attributes and primary image.
func (f *ProductFamily) Initial() Resolution {
	return Resolution{
		WoodType:    f.Main.WoodType,
		CushionType: f.Main.CushionType,
		VariantID:   f.Main.ID,
		Image:       f.Main.Image,
		Price:       f.Main.Price,
		Available:   true,
	}
}

// Resolve picks the variant matching wood and cushion exactly. A match with an
// image (customized override first) is shown as available; anything else falls
// back to the family's primary image and is marked unavailable.
func (f *ProductFamily) Resolve(wood, cushion string) Resolution {
	res := Resolution{
		WoodType:    wood,
		CushionType: cushion,
		Image:       f.Main.Image,
		Price:       f.Main.Price,
	}

	v, ok := f.Find(wood, cushion)
	if !ok {
		return res
	}
	img := v.DisplayImage()
	if img == "" {
		return res
	}

	res.WoodType = v.WoodType
	res.CushionType = v.CushionType
	res.VariantID = v.ID
	res.Image = img
	res.Price = f.PriceOf(v)
	res.Available = true
	return res
}
