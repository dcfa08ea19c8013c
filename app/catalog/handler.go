package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/oakhaus/showroom/app/httpx"
	"github.com/oakhaus/showroom/logging"
	"github.com/oakhaus/showroom/models"
)

type Response struct {
	Total    int       `json:"total"`
	Products []Product `json:"products"`
}

type Product struct {
	ID          uint    `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Theme       string  `json:"theme"`
	Category    string  `json:"category"`
	WoodType    string  `json:"wood_type"`
	CushionType string  `json:"cushion_type"`
	Image       string  `json:"image"`
}

type Variant struct {
	ID              uint    `json:"id"`
	WoodType        string  `json:"wood_type"`
	CushionType     string  `json:"cushion_type"`
	Price           float64 `json:"price"`
	Image           string  `json:"image"`
	CustomizedImage string  `json:"customized_image"`
	IsMainVariant   bool    `json:"is_main_variant"`
}

type Images struct {
	Front  string `json:"front"`
	Side   string `json:"side"`
	Back   string `json:"back"`
	Detail string `json:"detail"`
}

type Options struct {
	WoodTypes    []string `json:"wood_types"`
	CushionTypes []string `json:"cushion_types"`
}

// Selection is the displayed state for one wood/cushion pick.
type Selection struct {
	WoodType    string  `json:"wood_type"`
	CushionType string  `json:"cushion_type"`
	VariantID   uint    `json:"variant_id"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
	Available   bool    `json:"available"`
}

type ProductDetail struct {
	Product
	Description string    `json:"description"`
	Images      Images    `json:"images"`
	Options     Options   `json:"options"`
	Variants    []Variant `json:"variants"`
	Selection   Selection `json:"selection"`
}

type ProductProvider interface {
	GetFilteredProducts(ctx context.Context, offset, limit int, filters models.ProductFilters) ([]models.Product, int64, error)
	GetFamily(ctx context.Context, code string) (*models.ProductFamily, error)
}

type CatalogHandler struct {
	repo ProductProvider
	log  *zap.Logger
}

func NewCatalogHandler(r ProductProvider, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		repo: r,
		log:  log,
	}
}

// HandleGet serves GET /products.
func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	filters := models.ProductFilters{
		Theme:    r.URL.Query().Get("theme"),
		Category: r.URL.Query().Get("category"),
	}
	if priceStr := r.URL.Query().Get("price_lt"); priceStr != "" {
		if val, err := strconv.ParseFloat(priceStr, 64); err == nil {
			filters.PriceLessThan = &val
		}
	}
	h.list(w, r, filters)
}

// HandleGetByTheme serves GET /themes/{theme}/products.
func (h *CatalogHandler) HandleGetByTheme(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.ProductFilters{Theme: r.PathValue("theme")})
}

// HandleGetByCategory serves GET /categories/{category}/products.
func (h *CatalogHandler) HandleGetByCategory(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.ProductFilters{Category: r.PathValue("category")})
}

func (h *CatalogHandler) list(w http.ResponseWriter, r *http.Request, filters models.ProductFilters) {
	offset, limit := parsePage(r)

	res, total, err := h.repo.GetFilteredProducts(r.Context(), offset, limit, filters)
	if err != nil {
		logging.FromRequest(h.log, r).Error("list products", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	products := make([]Product, len(res))
	for i, p := range res {
		products[i] = toProduct(p)
	}

	httpx.JSON(w, http.StatusOK, Response{
		Total:    int(total),
		Products: products,
	})
}

// HandleGetProduct serves GET /products/{code}.
func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	family, ok := h.family(w, r)
	if !ok {
		return
	}

	// Variants without their own price inherit the family price.
	variants := make([]Variant, len(family.Variants))
	for i, v := range family.Variants {
		variants[i] = Variant{
			ID:              v.ID,
			WoodType:        v.WoodType,
			CushionType:     v.CushionType,
			Price:           family.PriceOf(v).InexactFloat64(),
			Image:           v.Image,
			CustomizedImage: v.CustomizedImage,
			IsMainVariant:   v.IsMainVariant,
		}
	}

	base := family.Main
	httpx.JSON(w, http.StatusOK, ProductDetail{
		Product:     toProduct(base),
		Description: base.Description,
		Images: Images{
			Front:  base.ImageFront,
			Side:   base.ImageSide,
			Back:   base.ImageBack,
			Detail: base.ImageDetail,
		},
		Options: Options{
			WoodTypes:    models.WoodTypes,
			CushionTypes: models.CushionTypes,
		},
		Variants:  variants,
		Selection: toSelection(family.Initial()),
	})
}

// HandleVariation serves GET /products/{code}/variation?wood=&cushion=.
func (h *CatalogHandler) HandleVariation(w http.ResponseWriter, r *http.Request) {
	family, ok := h.family(w, r)
	if !ok {
		return
	}
	wood := r.URL.Query().Get("wood")
	cushion := r.URL.Query().Get("cushion")
	httpx.JSON(w, http.StatusOK, toSelection(family.Resolve(wood, cushion)))
}

func (h *CatalogHandler) family(w http.ResponseWriter, r *http.Request) (*models.ProductFamily, bool) {
	family, err := h.repo.GetFamily(r.Context(), r.PathValue("code"))
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			httpx.Error(w, http.StatusNotFound, "Product not found")
			return nil, false
		}
		logging.FromRequest(h.log, r).Error("load product family",
			zap.String("code", r.PathValue("code")), zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to retrieve product")
		return nil, false
	}
	return family, true
}

func parsePage(r *http.Request) (offset, limit int) {
	offset = 0
	limit = 10

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > 100 {
				limit = 100
			} else {
				limit = l
			}
		}
	}
	return offset, limit
}

func toProduct(p models.Product) Product {
	return Product{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Price:       p.Price.InexactFloat64(),
		Theme:       p.Theme,
		Category:    p.Category,
		WoodType:    p.WoodType,
		CushionType: p.CushionType,
		Image:       p.Image,
	}
}

func toSelection(res models.Resolution) Selection {
	return Selection{
		WoodType:    res.WoodType,
		CushionType: res.CushionType,
		VariantID:   res.VariantID,
		Image:       res.Image,
		Price:       res.Price.InexactFloat64(),
		Available:   res.Available,
	}
}
