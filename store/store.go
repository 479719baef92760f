// Package store persists descriptor envelopes.
package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/seiflotfy/genpress/descriptor"
)

// Entry is the listing metadata of a stored envelope.
type Entry struct {
	ID     string
	Origin string
	Length int
	Kind   descriptor.Kind
	Bytes  int
}

// Store defines persistence operations for envelopes. Put assigns a new
// uuid; Get and Delete report whether the id existed.
type Store interface {
	Init(ctx context.Context) error
	Put(ctx context.Context, env *descriptor.Envelope) (string, error)
	Get(ctx context.Context, id string) (*descriptor.Envelope, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]Entry, error)
}

// NewStore returns the backend named by kind. path is used by sqlite.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes stores that hold resources.
func CloseIfSupported(s Store) error {
	closer, ok := s.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

func encodeEnvelope(env *descriptor.Envelope) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := env.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeEnvelope(id string, payload []byte) (*descriptor.Envelope, error) {
	env := &descriptor.Envelope{}
	if _, err := env.ReadFrom(bytes.NewReader(payload)); err != nil {
		return nil, fmt.Errorf("decode envelope %s: %w", id, err)
	}
	return env, nil
}
