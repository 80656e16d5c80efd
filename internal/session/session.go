// Package session hosts documents for remote editors. A Session bundles a
// document model with its texture cache and scene builder and serializes
// every access through one mutex.
package session

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/lucent/lucent/core-go/internal/canvas"
	"github.com/lucent/lucent/core-go/internal/document"
	"github.com/lucent/lucent/core-go/internal/geometry"
	"github.com/lucent/lucent/core-go/internal/scene"
	"github.com/lucent/lucent/core-go/internal/texcache"
	"github.com/lucent/lucent/core-go/internal/typeid"
)

type Option func(*options)

type options struct {
	logger       *slog.Logger
	historyLimit int
	cacheOpts    []texcache.Option
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithHistoryLimit(n int) Option {
	return func(o *options) { o.historyLimit = n }
}

func WithCacheOptions(opts ...texcache.Option) Option {
	return func(o *options) { o.cacheOpts = append(o.cacheOpts, opts...) }
}

// ErrClosed is returned for operations on a removed session.
var ErrClosed = errors.New("session closed")

type Session struct {
	ID string

	mu      sync.Mutex
	closed  bool
	model   *canvas.Model
	cache   *texcache.Cache
	builder *scene.Builder
	logger  *slog.Logger
}

func New(opts ...Option) *Session {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	id := typeid.NewSessionID()
	logger := o.logger.With("session", id)

	model := canvas.New(canvas.WithLogger(logger), canvas.WithHistoryLimit(o.historyLimit))
	cache := texcache.New(append([]texcache.Option{texcache.WithLogger(logger)}, o.cacheOpts...)...)
	return &Session{
		ID:      id,
		model:   model,
		cache:   cache,
		builder: scene.NewBuilder(model, cache, scene.WithLogger(logger)),
		logger:  logger,
	}
}

// LoadSample fills the session with the sample items. The load is not
// undoable.
func (s *Session) LoadSample() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, d := range document.NewSampleItems() {
		if _, err := s.model.AddItem(d); err != nil {
			return err
		}
	}
	s.model.ClearHistory()
	return nil
}

// Subscribe forwards model events to fn. fn runs while the session lock
// is held and must not call back into the session.
func (s *Session) Subscribe(fn func(canvas.Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	unsub := s.model.Subscribe(fn)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		unsub()
	}
}

// Snapshot returns the structured items and history availability.
func (s *Session) Snapshot() SyncPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SyncPayload{
		Items:   s.model.ItemsData(),
		CanUndo: s.model.CanUndo(),
		CanRedo: s.model.CanRedo(),
	}
}

func (s *Session) Items() []document.Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.ItemsData()
}

// Scene compiles the current draw commands.
func (s *Session) Scene() []scene.DrawCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sceneLocked()
}

func (s *Session) sceneLocked() []scene.DrawCommand {
	return scene.Compile(s.builder.Graph(), s.outline)
}

func (s *Session) outline(id string) geometry.Outline {
	it, ok := s.model.Item(s.model.IndexOf(id))
	if !ok || it.Geometry == nil {
		return nil
	}
	return it.Geometry.Outline()
}

// WritePNG composites the scene at scale and encodes it to w.
func (s *Session) WritePNG(w io.Writer, scale float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.builder.WritePNG(w, scale)
}

// ExportPNG writes the composited scene to path, reporting success.
func (s *Session) ExportPNG(path string, scale float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	return s.builder.ExportPNG(path, scale)
}

// Close detaches the scene and drops cached textures. Later operations
// fail with ErrClosed. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.builder.Close()
	s.cache.Clear()
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
