// Package blobstore stores uploaded prescription files as opaque blobs and
// hands back URL-addressable references. Callers treat the store as a black
// box: upload yields a name, the name serves the file back.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound       = errors.New("file not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
)

// MaxFileSize is the maximum allowed upload size in bytes (10 MB).
const MaxFileSize = 10 * 1024 * 1024

// AllowedContentTypes lists the MIME types accepted for prescription uploads.
var AllowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// BlobMetadata describes a stored file.
type BlobMetadata struct {
	Name         string    `json:"name"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	Hash         string    `json:"hash"`
	UploadedBy   int64     `json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// BlobStore is the contract for prescription file storage backends.
type BlobStore interface {
	Save(ctx context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error)
	Open(ctx context.Context, name string) (io.ReadCloser, *BlobMetadata, error)
	Delete(ctx context.Context, name string) error
}

// newBlobName derives the stored name: an opaque uuid plus the original
// extension so downloads keep a sensible filename.
func newBlobName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("prescription_%s%s", uuid.New().String(), ext)
}

// validate checks metadata and buffers the content, enforcing size and type
// limits shared by every backend.
func validate(meta *BlobMetadata, content io.Reader) ([]byte, error) {
	if meta.OriginalName == "" {
		return nil, ErrMissingFileName
	}
	if !AllowedContentTypes[meta.ContentType] {
		return nil, ErrInvalidContentType
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	h := sha256.Sum256(data)
	meta.Name = newBlobName(meta.OriginalName)
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.CreatedAt = time.Now().UTC()
	return data, nil
}

// MemoryBlobStore is a thread-safe in-memory BlobStore for tests and
// development.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

type storedBlob struct {
	metadata BlobMetadata
	content  []byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string]*storedBlob)}
}

func (s *MemoryBlobStore) Save(_ context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	data, err := validate(&meta, content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.blobs[meta.Name] = &storedBlob{metadata: meta, content: data}
	s.mu.Unlock()

	out := meta
	return &out, nil
}

func (s *MemoryBlobStore) Open(_ context.Context, name string) (io.ReadCloser, *BlobMetadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[name]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, ErrBlobNotFound
	}

	meta := blob.metadata
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

func (s *MemoryBlobStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[name]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, name)
	return nil
}

// DiskBlobStore stores files under a directory on local disk. Metadata is
// not persisted separately; the content type is re-derived from the
// extension when serving.
type DiskBlobStore struct {
	dir string
}

func NewDiskBlobStore(dir string) (*DiskBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", dir, err)
	}
	return &DiskBlobStore{dir: dir}, nil
}

func (s *DiskBlobStore) Save(_ context.Context, meta BlobMetadata, content io.Reader) (*BlobMetadata, error) {
	data, err := validate(&meta, content)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(filepath.Join(s.dir, meta.Name), data, 0o644); err != nil {
		return nil, fmt.Errorf("write blob %s: %w", meta.Name, err)
	}

	out := meta
	return &out, nil
}

func (s *DiskBlobStore) Open(_ context.Context, name string) (io.ReadCloser, *BlobMetadata, error) {
	// Reject path traversal before touching the filesystem.
	if name != filepath.Base(name) || name == "" || name == "." {
		return nil, nil, ErrBlobNotFound
	}

	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrBlobNotFound
		}
		return nil, nil, fmt.Errorf("open blob %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat blob %s: %w", name, err)
	}

	meta := &BlobMetadata{
		Name:        name,
		ContentType: contentTypeForExt(filepath.Ext(name)),
		Size:        info.Size(),
		CreatedAt:   info.ModTime(),
	}
	return f, meta, nil
}

func (s *DiskBlobStore) Delete(_ context.Context, name string) error {
	if name != filepath.Base(name) || name == "" || name == "." {
		return ErrBlobNotFound
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return ErrBlobNotFound
	}
	return err
}

func contentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}
