package home

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/oakhaus/showroom/app/httpx"
	"github.com/oakhaus/showroom/logging"
	"github.com/oakhaus/showroom/models"
)

const latestProducts = 8

type ProductLister interface {
	GetLatest(ctx context.Context, limit int) ([]models.Product, error)
}

type ProjectLister interface {
	List(ctx context.Context, filters models.ProjectFilters) ([]models.Project, error)
}

type Response struct {
	Products []models.Product `json:"products"`
	Projects []models.Project `json:"projects"`
}

type HomeHandler struct {
	products ProductLister
	projects ProjectLister
	log      *zap.Logger
}

func NewHomeHandler(products ProductLister, projects ProjectLister, log *zap.Logger) *HomeHandler {
	return &HomeHandler{products: products, projects: projects, log: log}
}

// HandleGet serves GET /home: the newest products and the ongoing projects.
func (h *HomeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.GetLatest(r.Context(), latestProducts)
	if err != nil {
		logging.FromRequest(h.log, r).Error("latest products", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to load home page")
		return
	}
	projects, err := h.projects.List(r.Context(), models.ProjectFilters{Status: models.ProjectOngoing})
	if err != nil {
		logging.FromRequest(h.log, r).Error("ongoing projects", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to load home page")
		return
	}

	resp := Response{Products: products, Projects: projects}
	if resp.Products == nil {
		resp.Products = []models.Product{}
	}
	if resp.Projects == nil {
		resp.Projects = []models.Project{}
	}
	httpx.JSON(w, http.StatusOK, resp)
}
