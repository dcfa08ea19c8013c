package storage

import (
	"context"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LocalStorage keeps blobs in a directory on disk.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates basePath when missing.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "./uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, errors.Wrap(err, "create storage directory")
	}
	return &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

func (s *LocalStorage) fullPath(key string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || strings.Contains(clean, "/") {
		return "", ErrNotFound
	}
	return filepath.Join(s.basePath, clean), nil
}

func (s *LocalStorage) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	full, err := s.fullPath(key)
	if err != nil {
		return err
	}
	file, err := os.Create(full)
	if err != nil {
		return errors.Wrap(err, "create file")
	}

	_, err = io.Copy(file, r)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(full)
		return errors.Wrap(err, "write file")
	}
	return nil
}

// Open returns the blob and its content type, derived from the key extension.
func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	full, err := s.fullPath(key)
	if err != nil {
		return nil, "", err
	}
	file, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", errors.Wrap(err, "open file")
	}
	contentType := mime.TypeByExtension(filepath.Ext(full))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return file, contentType, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	full, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "delete file")
	}
	return nil
}

func (s *LocalStorage) URL(key string) string {
	return s.baseURL + "/" + key
}
