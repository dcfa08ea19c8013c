// Package inventory serves the back-office product forms: creating a whole
// product family from one record, and editing or deleting single rows.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oakhaus/showroom/app/httpx"
	"github.com/oakhaus/showroom/logging"
	"github.com/oakhaus/showroom/models"
	"github.com/oakhaus/showroom/storage"
)

type ProductWriter interface {
	CreateFamily(ctx context.Context, rows []models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uint) error
	DeleteFamily(ctx context.Context, code string) (int64, error)
}

// Images are reference URLs or inline data URLs.
type Images struct {
	Image           string `json:"image"`
	ImageFront      string `json:"image_front"`
	ImageSide       string `json:"image_side"`
	ImageBack       string `json:"image_back"`
	ImageDetail     string `json:"image_detail"`
	CustomizedImage string `json:"customized_image"`
}

type ProductRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Code        string  `json:"code" validate:"required,max=100"`
	Theme       string  `json:"theme" validate:"max=100"`
	Category    string  `json:"category" validate:"max=100"`
	Description string  `json:"description" validate:"max=10000"`
	Price       float64 `json:"price" validate:"gte=0"`
	WoodType    string  `json:"wood_type" validate:"required"`
	CushionType string  `json:"cushion_type" validate:"required"`
	Images
}

type OverrideRequest struct {
	WoodType        string  `json:"wood_type" validate:"required"`
	CushionType     string  `json:"cushion_type" validate:"required"`
	Price           float64 `json:"price" validate:"gte=0"`
	Image           string  `json:"image"`
	CustomizedImage string  `json:"customized_image"`
}

type FamilyRequest struct {
	ProductRequest
	Overrides []OverrideRequest `json:"overrides" validate:"max=15,dive"`
}

type RowRequest struct {
	ProductRequest
	IsMainVariant bool `json:"is_main_variant"`
}

type FamilyResponse struct {
	Code     string           `json:"code"`
	Variants []models.Product `json:"variants"`
}

type InventoryHandler struct {
	repo      ProductWriter
	media     storage.Externalizer
	validator *httpx.Validator
	log       *zap.Logger
}

func NewInventoryHandler(repo ProductWriter, media storage.Externalizer, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		repo:      repo,
		media:     media,
		validator: httpx.NewValidator(),
		log:       log,
	}
}

// HandleCreateFamily serves POST /admin/products. The main row and all its
// grid siblings are written together or not at all.
func (h *InventoryHandler) HandleCreateFamily(w http.ResponseWriter, r *http.Request) {
	var input FamilyRequest
	if !h.validator.Bind(w, r, &input) {
		return
	}
	if fields := blankFields(input.ProductRequest); len(fields) > 0 {
		httpx.ValidationFailed(w, fields)
		return
	}

	// The family is checked with the submitted references first so nothing
	// is stored for a form that cannot be saved.
	base := toProduct(input.ProductRequest)
	overrides := toOverrides(input.Overrides)
	if _, err := models.BuildFamily(*base, overrides); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	media := storage.NewBatch(r.Context(), h.media)
	externalize(media, base)
	for i := range overrides {
		overrides[i].Image = media.Ref(overrideField(i, "image"), overrides[i].Image, storage.KindImage)
		overrides[i].CustomizedImage = media.Ref(overrideField(i, "customized_image"), overrides[i].CustomizedImage, storage.KindImage)
	}
	if !h.mediaOK(w, r, media) {
		return
	}

	rows, err := models.BuildFamily(*base, overrides)
	if err != nil {
		h.discard(r, media)
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.CreateFamily(r.Context(), rows); err != nil {
		h.discard(r, media)
		h.writeError(w, r, "create product family", err)
		return
	}

	logging.FromRequest(h.log, r).Info("product family created",
		zap.String("code", base.Code), zap.Int("variants", len(rows)))
	httpx.JSON(w, http.StatusCreated, FamilyResponse{Code: base.Code, Variants: rows})
}

// HandleGet serves GET /admin/products/{id} for the edit form.
func (h *InventoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}
	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "load product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

// HandleUpdate serves PUT /admin/products/{id} as a full overwrite of the row.
func (h *InventoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}
	var input RowRequest
	if !h.validator.Bind(w, r, &input) {
		return
	}
	if fields := blankFields(input.ProductRequest); len(fields) > 0 {
		httpx.ValidationFailed(w, fields)
		return
	}

	wood, okW := models.CanonicalWood(input.WoodType)
	cushion, okC := models.CanonicalCushion(input.CushionType)
	if !okW || !okC {
		fields := map[string]string{}
		if !okW {
			fields["wood_type"] = "Must be one of: " + strings.Join(models.WoodTypes, ", ")
		}
		if !okC {
			fields["cushion_type"] = "Must be one of: " + strings.Join(models.CushionTypes, ", ")
		}
		httpx.ValidationFailed(w, fields)
		return
	}

	product := toProduct(input.ProductRequest)
	media := storage.NewBatch(r.Context(), h.media)
	externalize(media, product)
	if !h.mediaOK(w, r, media) {
		return
	}
	product.ID = id
	product.WoodType = wood
	product.CushionType = cushion
	product.IsMainVariant = input.IsMainVariant

	if err := h.repo.Update(r.Context(), product); err != nil {
		h.discard(r, media)
		h.writeError(w, r, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

// HandleDelete serves DELETE /admin/products/{id}.
func (h *InventoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid product id")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteFamily serves DELETE /admin/products/code/{code}.
func (h *InventoryHandler) HandleDeleteFamily(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	n, err := h.repo.DeleteFamily(r.Context(), code)
	if err != nil {
		h.writeError(w, r, "delete product family", err)
		return
	}
	logging.FromRequest(h.log, r).Info("product family deleted", zap.String("code", code), zap.Int64("rows", n))
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"code": code, "deleted": n})
}

// mediaOK answers the request and drops whatever the batch stored when any
// field failed.
func (h *InventoryHandler) mediaOK(w http.ResponseWriter, r *http.Request, media *storage.Batch) bool {
	if !media.Failed() {
		return true
	}
	h.discard(r, media)
	if media.Err != nil {
		logging.FromRequest(h.log, r).Error("store product media", zap.Error(media.Err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to store media")
		return false
	}
	httpx.ValidationFailed(w, media.Rejected)
	return false
}

func (h *InventoryHandler) discard(r *http.Request, media *storage.Batch) {
	if err := media.Discard(); err != nil {
		logging.FromRequest(h.log, r).Warn("discard product media", zap.Error(err))
	}
}

func (h *InventoryHandler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, models.ErrProductNotFound):
		httpx.Error(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, models.ErrFamilyExists),
		errors.Is(err, models.ErrMainVariantLocked),
		errors.Is(err, models.ErrNoTargetFamily),
		errors.Is(err, models.ErrDuplicateCombination):
		httpx.Error(w, http.StatusConflict, err.Error())
	case isFamilyRuleError(err):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	default:
		logging.FromRequest(h.log, r).Error(op, zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to save product")
	}
}

func isFamilyRuleError(err error) bool {
	for _, target := range []error{
		models.ErrUnknownWoodType,
		models.ErrUnknownCushionType,
		models.ErrCombinationNotOnGrid,
		models.ErrOverrideDuplicatesMain,
		models.ErrEmptyFamily,
		models.ErrMixedFamilyCodes,
		models.ErrNoMainVariant,
		models.ErrMultipleMainVariants,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func toProduct(in ProductRequest) *models.Product {
	return &models.Product{
		Name:            strings.TrimSpace(in.Name),
		Code:            strings.TrimSpace(in.Code),
		Theme:           strings.TrimSpace(in.Theme),
		Category:        strings.TrimSpace(in.Category),
		Description:     strings.TrimSpace(in.Description),
		Price:           toPrice(in.Price),
		WoodType:        in.WoodType,
		CushionType:     in.CushionType,
		Image:           in.Image,
		ImageFront:      in.ImageFront,
		ImageSide:       in.ImageSide,
		ImageBack:       in.ImageBack,
		ImageDetail:     in.ImageDetail,
		CustomizedImage: in.CustomizedImage,
	}
}

func toOverrides(in []OverrideRequest) []models.VariantOverride {
	out := make([]models.VariantOverride, len(in))
	for i, o := range in {
		out[i] = models.VariantOverride{
			WoodType:        o.WoodType,
			CushionType:     o.CushionType,
			Price:           toPrice(o.Price),
			Image:           o.Image,
			CustomizedImage: o.CustomizedImage,
		}
	}
	return out
}

// externalize swaps the inline images of p for stored references.
func externalize(media *storage.Batch, p *models.Product) {
	p.Image = media.Ref("image", p.Image, storage.KindImage)
	p.ImageFront = media.Ref("image_front", p.ImageFront, storage.KindImage)
	p.ImageSide = media.Ref("image_side", p.ImageSide, storage.KindImage)
	p.ImageBack = media.Ref("image_back", p.ImageBack, storage.KindImage)
	p.ImageDetail = media.Ref("image_detail", p.ImageDetail, storage.KindImage)
	p.CustomizedImage = media.Ref("customized_image", p.CustomizedImage, storage.KindImage)
}

func toPrice(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func overrideField(i int, name string) string {
	return fmt.Sprintf("overrides[%d].%s", i, name)
}

func blankFields(in ProductRequest) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "This field is required"
	}
	if strings.TrimSpace(in.Code) == "" {
		fields["code"] = "This field is required"
	}
	return fields
}
