package media

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/oakhaus/showroom/app/httpx"
	"github.com/oakhaus/showroom/logging"
	"github.com/oakhaus/showroom/storage"
)

// multipart overhead allowed on top of the media size limit
const formOverhead = 1 << 20

type Uploader interface {
	Upload(ctx context.Context, r io.Reader, kind storage.Kind) (*storage.Media, error)
}

type Store interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

type MediaHandler struct {
	uploader Uploader
	store    Store
	maxSize  int64
	log      *zap.Logger
}

func NewMediaHandler(uploader Uploader, store Store, maxSize int64, log *zap.Logger) *MediaHandler {
	return &MediaHandler{uploader: uploader, store: store, maxSize: maxSize, log: log}
}

// HandleUpload serves POST /admin/media with a multipart "file" field.
func (h *MediaHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+formOverhead)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httpx.Error(w, http.StatusRequestEntityTooLarge, storage.ErrTooLarge.Error())
			return
		}
		httpx.Error(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	m, err := h.uploader.Upload(r.Context(), file, storage.KindImageOrVideo)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			httpx.Error(w, http.StatusRequestEntityTooLarge, err.Error())
		case storage.IsRejected(err):
			httpx.Error(w, http.StatusUnsupportedMediaType, err.Error())
		default:
			logging.FromRequest(h.log, r).Error("upload media", zap.Error(err))
			httpx.Error(w, http.StatusInternalServerError, "Failed to store media")
		}
		return
	}

	logging.FromRequest(h.log, r).Info("media uploaded",
		zap.String("key", m.Key), zap.String("content_type", m.ContentType), zap.Int64("size", m.Size))
	httpx.JSON(w, http.StatusCreated, m)
}

// HandleServe serves GET /media/{key}.
func (h *MediaHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	rc, contentType, err := h.store.Open(r.Context(), r.PathValue("key"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logging.FromRequest(h.log, r).Error("open media", zap.Error(err))
		http.Error(w, "failed to read media", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	// keys are random and never rewritten
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, rc); err != nil {
		logging.FromRequest(h.log, r).Warn("send media", zap.Error(err))
	}
}

// HandleDelete serves DELETE /admin/media/{key}. Deleting a missing key
// succeeds.
func (h *MediaHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := h.store.Delete(r.Context(), key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.Error(w, http.StatusBadRequest, "Invalid media key")
			return
		}
		logging.FromRequest(h.log, r).Error("delete media", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "Failed to delete media")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
