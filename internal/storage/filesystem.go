package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemBackend stores images under a root directory. Content type is
// kept in a sidecar metadata file next to the blob.
type FilesystemBackend struct {
	root string
}

// NewFilesystemBackend creates the root directory if needed.
func NewFilesystemBackend(root string) (*FilesystemBackend, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FilesystemBackend{root: root}, nil
}

var _ Backend = (*FilesystemBackend)(nil)

type fsMeta struct {
	ContentType string `json:"content_type"`
}

// path maps an object key to a filesystem path, rejecting traversal.
func (b *FilesystemBackend) path(key string) (string, error) {
	clean := filepath.Clean(key)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return filepath.Join(b.root, clean), nil
}

func (b *FilesystemBackend) Put(ctx context.Context, obj Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := b.path(obj.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	// Write to a temp file first so readers never observe partial blobs.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, obj.Data, 0o644); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit object: %w", err)
	}

	meta, err := json.Marshal(fsMeta{ContentType: obj.ContentType})
	if err != nil {
		return fmt.Errorf("encode object meta: %w", err)
	}
	if err := os.WriteFile(path+".meta", meta, 0o644); err != nil {
		return fmt.Errorf("write object meta: %w", err)
	}
	return nil
}

func (b *FilesystemBackend) Get(ctx context.Context, key string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	path, err := b.path(key)
	if err != nil {
		return Object{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Object{}, ErrObjectNotFound
		}
		return Object{}, fmt.Errorf("read object: %w", err)
	}

	obj := Object{Key: key, Data: data, ContentType: "application/octet-stream"}
	if raw, err := os.ReadFile(path + ".meta"); err == nil {
		var meta fsMeta
		if json.Unmarshal(raw, &meta) == nil && meta.ContentType != "" {
			obj.ContentType = meta.ContentType
		}
	}
	return obj, nil
}

func (b *FilesystemBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	os.Remove(path + ".meta")
	return nil
}
