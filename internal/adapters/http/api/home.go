package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/hearth/internal/domain/render"
	"github.com/okian/hearth/pkg/logger"
	"github.com/okian/hearth/pkg/tracing"
)

// Templates rendered for GET /.
const (
	templateFull    = "index.html"
	templatePartial = "_index.html"
)

// HeaderHXRequest marks a client-side content swap; the client already holds the page shell.
const HeaderHXRequest = "HX-Request"

// Renderer renders named templates.
type Renderer interface {
	Render(ctx context.Context, name string, data render.Context) ([]byte, error)
}

// HomeHandler serves the home page.
type HomeHandler struct {
	renderer Renderer
	logger   logger.Logger
}

// NewHomeHandler creates a new home handler.
func NewHomeHandler(renderer Renderer, log logger.Logger) *HomeHandler {
	return &HomeHandler{renderer: renderer, logger: log}
}

// HandleHome handles GET / requests. The fragment variant is rendered when
// the request carries HX-Request: true.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	name := templateFull
	if isPartialRequest(r) {
		name = templatePartial
	}

	body, err := h.renderer.Render(r.Context(), name, render.Context{
		"title": "Home",
	})
	if err != nil {
		h.renderFailed(w, r, name, err)
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/html; charset=utf-8")
	hdr.Set("Content-Length", strconv.Itoa(len(body)))
	hdr.Add("Vary", HeaderHXRequest)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// renderFailed answers 500 and logs the cause. Nothing has been written yet.
func (h *HomeHandler) renderFailed(w http.ResponseWriter, r *http.Request, name string, err error) {
	ctx := r.Context()
	if span := tracing.FromContext(ctx); span != nil {
		span.RecordError(err)
	}

	kind := "render_error"
	if errors.Is(err, render.ErrTemplateNotFound) {
		kind = "template_not_found"
	}
	h.logger.Error(ctx, "template render failed",
		logger.String("template", name),
		logger.String("kind", kind),
		logger.Error(err),
	)
	writeStatus(w, http.StatusInternalServerError)
}

func isPartialRequest(r *http.Request) bool {
	v, err := strconv.ParseBool(r.Header.Get(HeaderHXRequest))
	return err == nil && v
}
