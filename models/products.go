package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is one persisted variant row. Rows sharing a Code form a family and
// exactly one of them carries IsMainVariant.
type Product struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"not null" json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Code            string          `gorm:"index;not null" json:"code"`
	Theme           string          `gorm:"index" json:"theme"`
	Category        string          `gorm:"index" json:"category"`
	WoodType        string          `json:"wood_type"`
	CushionType     string          `json:"cushion_type"`
	IsMainVariant   bool            `gorm:"not null;default:false" json:"is_main_variant"`
	Image           string          `json:"image"`
	ImageFront      string          `json:"image_front"`
	ImageSide       string          `json:"image_side"`
	ImageBack       string          `json:"image_back"`
	ImageDetail     string          `json:"image_detail"`
	CustomizedImage string          `json:"customized_image"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (p *Product) TableName() string {
	return "products"
}

// Matches reports whether the variant carries exactly the given attributes.
func (p *Product) Matches(wood, cushion string) bool {
	return sameOption(p.WoodType, wood) && sameOption(p.CushionType, cushion)
}

// DisplayImage picks the customized override first, then the primary image.
func (p *Product) DisplayImage() string {
	if img := strings.TrimSpace(p.CustomizedImage); img != "" {
		return img
	}
	return strings.TrimSpace(p.Image)
}

// Option grid offered on every product family.
var (
	WoodTypes    = []string{"Teak", "Sheesham", "Mango", "Rosewood"}
	CushionTypes = []string{"None", "Foam", "Spring", "Memory Foam"}
)

// Combination is one point of the wood × cushion grid.
type Combination struct {
	WoodType    string `json:"wood_type"`
	CushionType string `json:"cushion_type"`
}

// Grid returns every wood × cushion combination in a stable order.
func Grid() []Combination {
	grid := make([]Combination, 0, len(WoodTypes)*len(CushionTypes))
	for _, w := range WoodTypes {
		for _, c := range CushionTypes {
			grid = append(grid, Combination{WoodType: w, CushionType: c})
		}
	}
	return grid
}

// CanonicalWood maps user input onto the grid spelling. ok is false for unknown values.
func CanonicalWood(v string) (string, bool) {
	return canonical(WoodTypes, v)
}

// CanonicalCushion maps user input onto the grid spelling. ok is false for unknown values.
func CanonicalCushion(v string) (string, bool) {
	return canonical(CushionTypes, v)
}

func canonical(options []string, v string) (string, bool) {
	for _, o := range options {
		if sameOption(o, v) {
			return o, true
		}
	}
	return "", false
}

func sameOption(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
