package projects

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/oakhaus/showroom/app/httpx"
	"github.com/oakhaus/showroom/logging"
	"github.com/oakhaus/showroom/models"
	"github.com/oakhaus/showroom/storage"
)

type ProjectStore interface {
	List(ctx context.Context, filters models.ProjectFilters) ([]models.Project, error)
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	Create(ctx context.Context, p *models.Project) error
	Update(ctx context.Context, p *models.Project) error
	Delete(ctx context.Context, id uint) error
}

type ProjectRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=10000"`
	Location    string   `json:"location" validate:"max=200"`
	Status      string   `json:"status" validate:"required,oneof=ongoing completed upcoming"`
	Type        string   `json:"type" validate:"max=100"`
	CoverImage  string   `json:"cover_image"`
	Images      []string `json:"images" validate:"max=50"`
	Videos      []string `json:"videos" validate:"max=20"`
}

type ProjectHandler struct {
	repo      ProjectStore
	media     storage.Externalizer
	validator *httpx.Validator
	log       *zap.Logger
}

func NewProjectHandler(repo ProjectStore, media storage.Externalizer, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		repo:      repo,
		media:     media,
		validator: httpx.NewValidator(),
		log:       log,
	}
}

// HandleList serves GET /projects?status=&type=.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	filters := models.ProjectFilters{
		Status: r.URL.Query().Get("status"),
		Type:   r.URL.Query().Get("type"),
	}
	projects, err := h.repo.List(r.Context(), filters)
	if err != nil {
		logging.FromRequest(h.log, r).Error("list projects", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch projects")
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	httpx.JSON(w, http.StatusOK, projects)
}

// HandleGet serves GET /projects/{id}.
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid project id")
		return
	}
	project, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, "load project", err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// HandleCreate serves POST /admin/projects.
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	project, media, ok := h.bind(w, r)
	if !ok {
		return
	}
	if err := h.repo.Create(r.Context(), project); err != nil {
		h.discard(r, media)
		h.writeStoreError(w, r, "create project", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, project)
}

// HandleUpdate serves PUT /admin/projects/{id} as a full overwrite.
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid project id")
		return
	}
	project, media, ok := h.bind(w, r)
	if !ok {
		return
	}
	project.ID = id
	if err := h.repo.Update(r.Context(), project); err != nil {
		h.discard(r, media)
		h.writeStoreError(w, r, "update project", err)
		return
	}
	httpx.JSON(w, http.StatusOK, project)
}

// HandleDelete serves DELETE /admin/projects/{id}.
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid project id")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, r, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bind validates the form and stores its inline media. The batch is returned
// so the caller can drop the media when the write fails.
func (h *ProjectHandler) bind(w http.ResponseWriter, r *http.Request) (*models.Project, *storage.Batch, bool) {
	var input ProjectRequest
	if !h.validator.Bind(w, r, &input) {
		return nil, nil, false
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		httpx.ValidationFailed(w, map[string]string{"title": "This field is required"})
		return nil, nil, false
	}

	media := storage.NewBatch(r.Context(), h.media)
	cover := media.Ref("cover_image", input.CoverImage, storage.KindImage)
	images := media.Refs("images", input.Images, storage.KindImage)
	videos := media.Refs("videos", input.Videos, storage.KindImageOrVideo)
	if media.Failed() {
		h.discard(r, media)
		if media.Err != nil {
			logging.FromRequest(h.log, r).Error("store project media", zap.Error(media.Err))
			httpx.Error(w, http.StatusInternalServerError, "Failed to store media")
		} else {
			httpx.ValidationFailed(w, media.Rejected)
		}
		return nil, nil, false
	}

	return &models.Project{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		Status:      input.Status,
		Type:        strings.TrimSpace(input.Type),
		CoverImage:  cover,
		Images:      images,
		Videos:      videos,
	}, media, true
}

func (h *ProjectHandler) discard(r *http.Request, media *storage.Batch) {
	if err := media.Discard(); err != nil {
		logging.FromRequest(h.log, r).Warn("discard project media", zap.Error(err))
	}
}

func (h *ProjectHandler) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, models.ErrProjectNotFound) {
		httpx.Error(w, http.StatusNotFound, "Project not found")
		return
	}
	logging.FromRequest(h.log, r).Error(op, zap.Error(err))
	httpx.Error(w, http.StatusInternalServerError, "Failed to save project")
}
