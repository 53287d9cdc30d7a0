// Package storage persists generated design images. Two backends exist: a
// local filesystem store for single-node deployments and an S3-compatible
// store for everything else.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound indicates the requested image does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Object is a stored image.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// Backend stores and retrieves design images by key.
type Backend interface {
	// Put stores the object, overwriting any existing data under the key.
	Put(ctx context.Context, obj Object) error

	// Get retrieves the object. Returns ErrObjectNotFound when absent.
	Get(ctx context.Context, key string) (Object, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
