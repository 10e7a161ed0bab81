// Package docstore defines the path-addressed document tree every booking
// component persists through. Paths are "/"-separated; each segment is a key
// in a nested JSON object. Backends live in the memory, mongo and firestore
// subpackages.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrInvalidPath  = errors.New("invalid document path")
	ErrInvalidValue = errors.New("invalid document value")
	ErrExists       = errors.New("document already exists")
	ErrClosed       = errors.New("document store is closed")
)

// Store is the document store contract. Values are normalized through JSON, so
// numbers come back as float64 and objects as map[string]any.
type Store interface {
	// Get returns the subtree at path. A missing path yields a snapshot whose Exists is false.
	Get(ctx context.Context, path string) (*Snapshot, error)
	// Set overwrites the subtree at path. A nil value removes it.
	Set(ctx context.Context, path string, value any) error
	// Create writes value only if nothing is stored at path, otherwise ErrExists.
	Create(ctx context.Context, path string, value any) error
	// Remove deletes the subtree at path. Removing a missing path succeeds.
	Remove(ctx context.Context, path string) error
	// Subscribe calls fn with the current subtree and again after every change
	// under or above path, until the returned cancel func is called or ctx ends.
	Subscribe(ctx context.Context, path string, fn func(*Snapshot)) (func(), error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
