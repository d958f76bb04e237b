// Package media stores uploaded images on the local filesystem.
// Clients submit images as base64 data URLs; decoded files are written
// under the media root and referenced by relative path.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidDataURL      = errors.New("invalid data URL")
	ErrUnsupportedMimeType = errors.New("unsupported image type")
	ErrImageTooLarge       = errors.New("image too large")
)

// MaxImageBytes bounds the decoded image size.
const MaxImageBytes = 10 << 20

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Storage writes and serves media files under a root directory.
type Storage struct {
	root      string
	urlPrefix string
}

// NewStorage creates the media root if needed.
func NewStorage(root, urlPrefix string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	return &Storage{root: root, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Root returns the filesystem directory media is stored under.
func (s *Storage) Root() string {
	return s.root
}

// DecodeDataURL parses a base64 data URL into its raw bytes and extension.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return nil, "", ErrInvalidDataURL
	}

	meta, payload, found := strings.Cut(dataURL[len("data:"):], ",")
	if !found {
		return nil, "", ErrInvalidDataURL
	}

	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", ErrInvalidDataURL
	}

	ext, ok := extensions[mimeType]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedMimeType, mimeType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", ErrInvalidDataURL
	}
	if len(data) == 0 {
		return nil, "", ErrInvalidDataURL
	}
	if len(data) > MaxImageBytes {
		return nil, "", ErrImageTooLarge
	}

	return data, ext, nil
}

// SaveDataURL decodes a data URL and writes it under root/<subdir> with a
// random filename. Returns the path relative to the media root.
func (s *Storage) SaveDataURL(dataURL, subdir string) (string, error) {
	data, ext, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	name := uuid.New().String() + ext
	relPath := filepath.Join(subdir, name)

	dir := filepath.Join(s.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.root, relPath), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	return filepath.ToSlash(relPath), nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Storage) Delete(relPath string) error {
	if relPath == "" {
		return nil
	}
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	return nil
}

// URL returns the public URL for a stored relative path.
func (s *Storage) URL(relPath string) string {
	if relPath == "" {
		return ""
	}
	return s.urlPrefix + "/" + strings.TrimPrefix(filepath.ToSlash(relPath), "/")
}

// resolve joins a relative path to the root, refusing traversal outside it.
func (s *Storage) resolve(relPath string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(relPath))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid media path: %s", relPath)
	}
	return full, nil
}
