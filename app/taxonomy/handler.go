package taxonomy

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/oakhaus/showroom/app/httpx"
	"github.com/oakhaus/showroom/logging"
)

// TagResponse is one theme or category a main product is filed under.
type TagResponse struct {
	Name string `json:"name"`
}

type TagProvider interface {
	GetThemes(ctx context.Context) ([]string, error)
	GetCategories(ctx context.Context) ([]string, error)
}

type TaxonomyHandler struct {
	repo TagProvider
	log  *zap.Logger
}

func NewTaxonomyHandler(r TagProvider, log *zap.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{repo: r, log: log}
}

// HandleGetThemes serves GET /themes.
func (h *TaxonomyHandler) HandleGetThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.repo.GetThemes(r.Context())
	if err != nil {
		logging.FromRequest(h.log, r).Error("list themes", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "failed to fetch themes")
		return
	}
	httpx.JSON(w, http.StatusOK, toTags(themes))
}

// HandleGetCategories serves GET /categories.
func (h *TaxonomyHandler) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetCategories(r.Context())
	if err != nil {
		logging.FromRequest(h.log, r).Error("list categories", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}
	httpx.JSON(w, http.StatusOK, toTags(categories))
}

func toTags(names []string) []TagResponse {
	response := make([]TagResponse, len(names))
	for i, n := range names {
		response[i] = TagResponse{Name: n}
	}
	return response
}
