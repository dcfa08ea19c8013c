package feedback

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/oakhaus/showroom/app/httpx"
	"github.com/oakhaus/showroom/logging"
	"github.com/oakhaus/showroom/models"
)

type FeedbackStore interface {
	Create(ctx context.Context, f *models.Feedback) error
	List(ctx context.Context, read *bool) ([]models.Feedback, error)
	ToggleRead(ctx context.Context, id uint) (*models.Feedback, error)
	Delete(ctx context.Context, id uint) error
}

type FeedbackRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Message string `json:"message" validate:"required,max=5000"`
}

type FeedbackHandler struct {
	repo      FeedbackStore
	validator *httpx.Validator
	log       *zap.Logger
}

func NewFeedbackHandler(repo FeedbackStore, log *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{repo: repo, validator: httpx.NewValidator(), log: log}
}

// HandleCreate serves POST /feedback.
func (h *FeedbackHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input FeedbackRequest
	if !h.validator.Bind(w, r, &input) {
		return
	}

	item := &models.Feedback{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.TrimSpace(input.Email),
		Message: httpx.CleanText(input.Message),
	}
	if item.Name == "" || item.Message == "" {
		fields := map[string]string{}
		if item.Name == "" {
			fields["name"] = "This field is required"
		}
		if item.Message == "" {
			fields["message"] = "This field is required"
		}
		httpx.ValidationFailed(w, fields)
		return
	}

	if err := h.repo.Create(r.Context(), item); err != nil {
		logging.FromRequest(h.log, r).Error("create feedback", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to submit feedback")
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

// HandleList serves GET /admin/feedback?read=true|false.
func (h *FeedbackHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var read *bool
	if raw := r.URL.Query().Get("read"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.Error(w, http.StatusBadRequest, "read must be true or false")
			return
		}
		read = &v
	}

	items, err := h.repo.List(r.Context(), read)
	if err != nil {
		logging.FromRequest(h.log, r).Error("list feedback", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to fetch feedback")
		return
	}
	if items == nil {
		items = []models.Feedback{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

// HandleToggleRead serves POST /admin/feedback/{id}/toggle-read.
func (h *FeedbackHandler) HandleToggleRead(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid feedback id")
		return
	}
	item, err := h.repo.ToggleRead(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, "toggle feedback", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// HandleDelete serves DELETE /admin/feedback/{id}.
func (h *FeedbackHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.Error(w, http.StatusBadRequest, "Invalid feedback id")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, r, "delete feedback", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FeedbackHandler) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, models.ErrFeedbackNotFound) {
		httpx.Error(w, http.StatusNotFound, "Feedback not found")
		return
	}
	logging.FromRequest(h.log, r).Error(op, zap.Error(err))
	httpx.Error(w, http.StatusInternalServerError, "Failed to update feedback")
}
