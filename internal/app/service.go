// Package service holds the process-wide application state shared by every
// HTTP handler: the template renderer, the asset stores and the readiness flag.
package service

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/okian/hearth/internal/adapters/assetstore"
	"github.com/okian/hearth/internal/adapters/http/site"
	"github.com/okian/hearth/internal/adapters/templates"
	"github.com/okian/hearth/internal/domain/asset"
	"github.com/okian/hearth/internal/domain/render"
	"github.com/okian/hearth/pkg/logger"
)

// FaviconPath is the favicon's key in the embedded asset tree.
const FaviconPath = "favicon.ico"

// Service is constructed once before the server accepts connections and is
// read-mostly afterwards.
type Service struct {
	// mu guards the fields Start assigns. It is held only while reading
	// them, never across a render or an asset read.
	mu sync.RWMutex

	// Configuration
	development bool
	templateFS  fs.FS
	templateDir string
	assetFS     fs.FS
	assetDir    string

	customRenderer render.Renderer
	customAssets   asset.Resolver

	// Components, built by Start
	renderer render.Renderer
	assets   asset.Resolver
	favicon  asset.Resolver
	strategy assetstore.Strategy

	// State
	started bool
	ready   atomic.Bool

	// Logging
	logger logger.Logger
}

// New constructs a Service that serves the content compiled into the binary.
func New(opts ...Option) *Service {
	s := &Service{
		templateFS: site.Templates(),
		assetFS:    site.Assets(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start runs the startup steps: it selects the asset strategy and loads the
// template set. It does not mark the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Named("app")
	}

	strategy := assetstore.StrategyEmbedded
	if s.development {
		strategy = assetstore.StrategyFilesystem
	}

	assets := s.customAssets
	if assets == nil {
		var err error
		assets, err = assetstore.New(strategy, s.assetDir, s.assetFS)
		if err != nil {
			return fmt.Errorf("build asset store: %w", err)
		}
	}

	renderer := s.customRenderer
	if renderer == nil {
		set := templates.New(s.templateFS, s.templateDir, templates.WithLive(s.development))
		if err := set.Load(ctx); err != nil {
			return fmt.Errorf("load templates: %w", err)
		}
		s.logger.Info(ctx, "templates loaded",
			logger.Any("pages", set.Names()),
			logger.String("override_dir", s.templateDir),
			logger.Bool("live", set.Live()),
		)
		renderer = set
	}

	s.assets = assets
	s.favicon = assetstore.NewEmbedded(s.assetFS)
	s.renderer = renderer
	s.strategy = strategy
	s.started = true

	s.logger.Info(ctx, "service started",
		logger.String("asset_strategy", string(strategy)),
		logger.String("asset_dir", s.assetDir),
		logger.Bool("development", s.development),
	)
	return nil
}

// MarkReady flips readiness to true. It reports whether this call performed
// the transition; readiness never returns to false.
func (s *Service) MarkReady() bool {
	if !s.ready.CompareAndSwap(false, true) {
		return false
	}
	if l := s.log(); l != nil {
		l.Info(context.Background(), "service ready")
	}
	return true
}

// Ready reports whether the startup-complete signal has fired.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// Strategy returns the asset strategy selected by Start.
func (s *Service) Strategy() assetstore.Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.strategy
}

// Render renders a template through the loaded set.
func (s *Service) Render(ctx context.Context, name string, data render.Context) ([]byte, error) {
	s.mu.RLock()
	r := s.renderer
	s.mu.RUnlock()

	if r == nil {
		return nil, ErrNotStarted
	}
	return r.Render(ctx, name, data)
}

// Asset resolves a path through the mounted asset strategy.
func (s *Service) Asset(ctx context.Context, name string) (asset.Entry, error) {
	s.mu.RLock()
	r := s.assets
	s.mu.RUnlock()

	if r == nil {
		return asset.Entry{}, ErrNotStarted
	}
	return r.Resolve(ctx, name)
}

// Favicon is always served from the embedded tree, whatever strategy is mounted.
func (s *Service) Favicon(ctx context.Context) (asset.Entry, error) {
	s.mu.RLock()
	r := s.favicon
	s.mu.RUnlock()

	if r == nil {
		return asset.Entry{}, ErrNotStarted
	}
	return r.Resolve(ctx, FaviconPath)
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logger
}
