package service

import (
	"io/fs"

	"github.com/okian/hearth/internal/domain/asset"
	"github.com/okian/hearth/internal/domain/render"
	"github.com/okian/hearth/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDevelopment selects live disk reads for assets and templates.
func WithDevelopment(dev bool) Option {
	return func(s *Service) {
		s.development = dev
	}
}

// WithTemplates sets the embedded default templates and the override directory.
func WithTemplates(embedded fs.FS, dir string) Option {
	return func(s *Service) {
		if embedded != nil {
			s.templateFS = embedded
		}
		s.templateDir = dir
	}
}

// WithAssets sets the embedded asset tree and the directory read in development mode.
func WithAssets(embedded fs.FS, dir string) Option {
	return func(s *Service) {
		if embedded != nil {
			s.assetFS = embedded
		}
		s.assetDir = dir
	}
}

// WithRenderer replaces the template set built by Start.
func WithRenderer(r render.Renderer) Option {
	return func(s *Service) {
		s.customRenderer = r
	}
}

// WithAssetResolver replaces the asset store built by Start.
func WithAssetResolver(r asset.Resolver) Option {
	return func(s *Service) {
		s.customAssets = r
	}
}
