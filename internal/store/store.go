// Package store persists memory documents, one per identity.
//
// Store performs no locking. Concurrent load-modify-save cycles for the same
// identity race (last save wins); callers must serialize them.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/rcliao/memtier/internal/logging"
	"github.com/rcliao/memtier/internal/model"
)

// ErrNotExist is returned by backends when an identity has no document.
var ErrNotExist = errors.New("store: document not found")

// ErrInvalidIdentity is returned for identities that cannot address a document.
var ErrInvalidIdentity = errors.New("store: invalid identity")

// Backend is the byte medium documents live on, addressed by identity.
type Backend interface {
	// Read returns the current document. Missing documents yield ErrNotExist.
	Read(ctx context.Context, identity string) ([]byte, error)

	// Write replaces the document as a whole.
	Write(ctx context.Context, identity string, data []byte) error

	// Remove discards the document. Removing a missing document is not an error.
	Remove(ctx context.Context, identity string) error

	// Close releases backend resources.
	Close() error
}

// LoadResult is the outcome of Load. Recovered is set when the stored
// document was missing or unreadable and a fresh state replaced it; Cause
// holds the reason.
type LoadResult struct {
	State     *model.MemoryState
	Recovered bool
	Cause     error
}

// Store implements the document contract on top of a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for recovery warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the time source used for fresh states.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New wraps backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logging.Discard(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Load returns the state for identity. Any failure to read or decode the
// document is logged and answered with a fresh default state, which is
// persisted right away so later loads are stable. Load never fails.
func (s *Store) Load(ctx context.Context, identity string) LoadResult {
	data, err := s.backend.Read(ctx, identity)
	if err == nil {
		state, derr := Decode(data)
		if derr == nil {
			return LoadResult{State: state}
		}
		err = derr
	}

	if errors.Is(err, ErrNotExist) {
		s.logger.Info("initializing memory document", "identity", identity)
	} else {
		s.logger.Warn("memory document unreadable, reinitializing", "identity", identity, "error", err)
	}

	state := model.NewState(s.now())
	if serr := s.Save(ctx, identity, state); serr != nil {
		s.logger.Error("persist fresh memory document", "identity", identity, "error", serr)
	}
	return LoadResult{State: state, Recovered: true, Cause: err}
}

// Save replaces the stored document with state.
func (s *Store) Save(ctx context.Context, identity string, state *model.MemoryState) error {
	data, err := Encode(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.backend.Write(ctx, identity, data); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// Reset discards the stored document; the next Load recreates it.
func (s *Store) Reset(ctx context.Context, identity string) error {
	if err := s.backend.Remove(ctx, identity); err != nil {
		return fmt.Errorf("remove state: %w", err)
	}
	return nil
}

// Export returns the encoded document for identity, materializing it first
// if needed.
func (s *Store) Export(ctx context.Context, identity string) ([]byte, error) {
	return Encode(s.Load(ctx, identity).State)
}

// Import validates data as a memory document and stores it for identity.
func (s *Store) Import(ctx context.Context, identity string, data []byte) (*model.MemoryState, error) {
	state, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, identity, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Encode renders state as an indented JSON document with a trailing newline.
func Encode(state *model.MemoryState) ([]byte, error) {
	state.Normalize()
	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Decode parses a stored document. Well-formed JSON with mistyped fields,
// such as a quoted importance, is coerced field by field rather than
// rejected.
func Decode(data []byte) (*model.MemoryState, error) {
	if !utf8.Valid(data) {
		return nil, errors.New("decode state: invalid UTF-8")
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("decode state: not a JSON object")
	}
	var state model.MemoryState
	if err := json.Unmarshal(trimmed, &state); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, fmt.Errorf("decode state: %w", err)
		}
		return coerceState(gjson.ParseBytes(trimmed)), nil
	}
	state.Normalize()
	return &state, nil
}

// ValidateIdentity rejects identities that are empty or could address
// anything other than a single flat document name.
func ValidateIdentity(identity string) error {
	switch {
	case strings.TrimSpace(identity) == "":
		return fmt.Errorf("%w: empty", ErrInvalidIdentity)
	case identity == "." || identity == "..":
		return fmt.Errorf("%w: %q", ErrInvalidIdentity, identity)
	case strings.ContainsAny(identity, `/\`+"\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidIdentity, identity)
	}
	return nil
}
