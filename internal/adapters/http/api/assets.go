package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/okian/hearth/internal/domain/asset"
	"github.com/okian/hearth/pkg/logger"
)

// AssetProvider resolves static assets.
type AssetProvider interface {
	Asset(ctx context.Context, name string) (asset.Entry, error)
	Favicon(ctx context.Context) (asset.Entry, error)
}

// AssetHandler serves the asset namespace and the favicon.
type AssetHandler struct {
	assets AssetProvider
	logger logger.Logger
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(assets AssetProvider, log logger.Logger) *AssetHandler {
	return &AssetHandler{assets: assets, logger: log}
}

// HandleAsset handles GET /assets/{path}.
func (h *AssetHandler) HandleAsset(w http.ResponseWriter, r *http.Request) {
	// chi matches on the raw path when one is set, so escapes survive in the param.
	name, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		writeStatus(w, http.StatusNotFound)
		return
	}
	entry, err := h.assets.Asset(r.Context(), name)
	if err != nil {
		h.notFound(w, r, name, err)
		return
	}
	writeEntry(w, entry)
}

// HandleFavicon handles GET /favicon.ico from the embedded store.
func (h *AssetHandler) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	entry, err := h.assets.Favicon(r.Context())
	if err != nil {
		h.notFound(w, r, "favicon.ico", err)
		return
	}
	writeEntry(w, entry)
}

// notFound answers 404 for every lookup failure. Storage failures are logged;
// plain misses are not.
func (h *AssetHandler) notFound(w http.ResponseWriter, r *http.Request, name string, err error) {
	if !errors.Is(err, asset.ErrNotFound) {
		h.logger.Warn(r.Context(), "asset lookup failed",
			logger.String("asset", name),
			logger.Error(err),
		)
	}
	writeStatus(w, http.StatusNotFound)
}
