// Package storage keeps uploaded media as blobs and hands out reference URLs.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/pkg/errors"
)

var (
	ErrNotFound        = errors.New("media not found")
	ErrTooLarge        = errors.New("media exceeds the allowed size")
	ErrUnknownFileType = errors.New("media type is unknown")
	ErrInvalidFileType = errors.New("media type is not allowed")
	ErrInvalidDataURL  = errors.New("invalid data url")
)

// Storage is a flat key/value blob store.
type Storage interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Kind restricts what a caller accepts.
type Kind int

const (
	KindImage Kind = iota + 1
	KindImageOrVideo
)

func (k Kind) allows(data []byte) bool {
	switch k {
	case KindImage:
		return filetype.IsImage(data)
	case KindImageOrVideo:
		return filetype.IsImage(data) || filetype.IsVideo(data)
	}
	return false
}

// Media is a stored blob.
type Media struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Uploader sniffs, size-checks and stores media.
type Uploader struct {
	store   Storage
	maxSize int64
}

func NewUploader(store Storage, maxSize int64) *Uploader {
	return &Uploader{store: store, maxSize: maxSize}
}

// Upload stores the bytes read from r under a fresh key.
func (u *Uploader) Upload(ctx context.Context, r io.Reader, kind Kind) (*Media, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read media")
	}
	return u.put(ctx, data, kind)
}

func (u *Uploader) put(ctx context.Context, data []byte, kind Kind) (*Media, error) {
	if int64(len(data)) > u.maxSize {
		return nil, ErrTooLarge
	}
	t, err := filetype.Match(data)
	if err != nil || t == filetype.Unknown {
		return nil, ErrUnknownFileType
	}
	if !kind.allows(data) {
		return nil, ErrInvalidFileType
	}

	key := uuid.NewString() + "." + t.Extension
	if err := u.store.Save(ctx, key, bytes.NewReader(data), t.MIME.Value); err != nil {
		return nil, err
	}
	return &Media{
		Key:         key,
		URL:         u.store.URL(key),
		ContentType: t.MIME.Value,
		Size:        int64(len(data)),
	}, nil
}

// IsDataURL reports whether ref carries inline data instead of a reference.
func IsDataURL(ref string) bool {
	return strings.HasPrefix(strings.TrimSpace(ref), "data:")
}

// Externalize stores an inline base64 data URL and returns its reference URL.
// Any other value is returned unchanged.
func (u *Uploader) Externalize(ctx context.Context, ref string, kind Kind) (string, error) {
	ref = strings.TrimSpace(ref)
	if !IsDataURL(ref) {
		return ref, nil
	}
	comma := strings.IndexByte(ref, ',')
	if comma < 0 || !strings.HasSuffix(ref[:comma], ";base64") {
		return "", ErrInvalidDataURL
	}
	encoded := ref[comma+1:]
	if int64(base64.StdEncoding.DecodedLen(len(encoded))) > u.maxSize+2 {
		return "", ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.Wrap(ErrInvalidDataURL, err.Error())
	}
	m, err := u.put(ctx, data, kind)
	if err != nil {
		return "", err
	}
	return m.URL, nil
}

// Discard removes media previously stored under url. URLs that do not point
// into this store are ignored.
func (u *Uploader) Discard(ctx context.Context, url string) error {
	prefix := u.store.URL("")
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	return u.store.Delete(ctx, strings.TrimPrefix(url, prefix))
}

// IsRejected reports whether err is the uploader refusing the media itself,
// as opposed to a storage failure.
func IsRejected(err error) bool {
	return errors.Is(err, ErrTooLarge) ||
		errors.Is(err, ErrUnknownFileType) ||
		errors.Is(err, ErrInvalidFileType) ||
		errors.Is(err, ErrInvalidDataURL)
}
