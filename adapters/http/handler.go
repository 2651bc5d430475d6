// Package http exposes the runtime compiler over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/construct/app"
	"github.com/artpar/construct/core/convention"
	"github.com/artpar/construct/core/formatter"
	"github.com/artpar/construct/core/generate"
	"github.com/artpar/construct/core/registry"
	"github.com/artpar/construct/core/schema"
	"github.com/artpar/construct/core/storage"
	"github.com/artpar/construct/pkg/jsonapi"
)

// DefaultMaxBodyBytes limits the size of a submitted declaration.
const DefaultMaxBodyBytes int64 = 1 << 20

// Resource types.
const (
	TypeBuild = "builds"
	TypeTable = "tables"
)

// BuildService is the application service behind the handlers.
type BuildService interface {
	Compile(ctx context.Context, src []byte, source string) (*app.BuildResult, error)
	Normalize(src []byte, filename string) (*convention.Table, error)
	Get(ctx context.Context, id string) (storage.Build, error)
	List(ctx context.Context, opts storage.ListOptions) ([]storage.Build, int64, error)
}

// CompileHandler serves the compile, normalize and build history endpoints.
type CompileHandler struct {
	service      BuildService
	logger       zerolog.Logger
	maxBodyBytes int64
}

// NewCompileHandler creates a compile handler.
func NewCompileHandler(service BuildService, logger zerolog.Logger, maxBodyBytes int64) *CompileHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &CompileHandler{
		service:      service,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// Compile assembles the declaration in the request body.
// The optional "source" query parameter names the declaration, and "only"
// restricts the returned artifacts (comma separated).
func (h *CompileHandler) Compile(w http.ResponseWriter, r *http.Request) {
	src, ok := h.readBody(w, r)
	if !ok {
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "request"
	}

	res, err := h.service.Compile(r.Context(), src, source)
	if err != nil {
		h.writeAssemblyError(w, err)
		return
	}

	bundle, err := selectBundle(res, r.URL.Query().Get("only"))
	if err != nil {
		jsonapi.WriteError(w, jsonapi.NewError(http.StatusBadRequest, "unknown_artifact", "Unknown Artifact").
			Detail(err.Error()).
			Parameter("only").
			Build())
		return
	}

	id := res.Build.ID
	if id == "" {
		id = res.Fingerprint
	}
	rb := jsonapi.NewResource(TypeBuild, id).
		Attr("runtime", res.Table.Runtime()).
		Attr("source", source).
		Attr("fingerprint", res.Fingerprint).
		Attr("module_count", res.Table.Len()).
		Attr("bundle", bundle).
		Meta("cached", res.Cached).
		Meta("duration_ms", float64(res.Duration)/float64(time.Millisecond))
	if res.Build.ID != "" {
		rb.Attr("created_at", res.Build.CreatedAt).Link("/builds/" + res.Build.ID)
	}

	status := http.StatusOK
	if res.Build.ID != "" && !res.Cached {
		status = http.StatusCreated
		w.Header().Set("Location", "/builds/"+res.Build.ID)
	}
	jsonapi.WriteResource(w, status, rb.Build())
}

// Normalize returns the canonical module table of the declaration.
func (h *CompileHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	src, ok := h.readBody(w, r)
	if !ok {
		return
	}

	table, err := h.service.Normalize(src, "request")
	if err != nil {
		h.writeAssemblyError(w, err)
		return
	}

	res := jsonapi.NewResource(TypeTable, table.Runtime()).
		Attr("header", table.Header()).
		Attr("modules", table.Modules()).
		Attr("canonical", table.String()).
		Build()
	jsonapi.WriteResource(w, http.StatusOK, res)
}

// ListBuilds returns stored builds, newest first.
// Supports page[number], page[size] and filter[runtime].
func (h *CompileHandler) ListBuilds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := jsonapi.ParsePaginationParams(q, 20)

	builds, total, err := h.service.List(r.Context(), storage.ListOptions{
		Limit:   perPage,
		Offset:  (page - 1) * perPage,
		Runtime: q.Get("filter[runtime]"),
	})
	if err != nil {
		h.writeStoreError(w, err, "")
		return
	}

	resources := make([]jsonapi.Resource, 0, len(builds))
	for _, b := range builds {
		resources = append(resources, buildResource(b, false))
	}
	jsonapi.WriteCollection(w, http.StatusOK, resources, jsonapi.NewPagination(total, page, perPage, r.URL.Path))
}

// GetBuild returns one stored build including its bundle.
func (h *CompileHandler) GetBuild(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err, id)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, buildResource(b, true))
}

func (h *CompileHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	src, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonapi.WriteError(w, jsonapi.ErrPayloadTooLarge(h.maxBodyBytes))
			return nil, false
		}
		h.logger.Error().Err(err).Msg("failed to read request body")
		jsonapi.WriteBadRequest(w, "Failed to read request body")
		return nil, false
	}
	if len(strings.TrimSpace(string(src))) == 0 {
		jsonapi.WriteBadRequest(w, "Request body must contain a runtime declaration")
		return nil, false
	}
	return src, true
}

func (h *CompileHandler) writeAssemblyError(w http.ResponseWriter, err error) {
	errs := AssemblyErrors(err)
	if len(errs) == 0 {
		h.logger.Error().Err(err).Msg("assembly failed")
		jsonapi.WriteInternalError(w, "")
		return
	}
	jsonapi.WriteError(w, errs...)
}

func (h *CompileHandler) writeStoreError(w http.ResponseWriter, err error, id string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		jsonapi.WriteError(w, jsonapi.ErrNotFoundWithID("build", id))
	case errors.Is(err, app.ErrNoStore):
		jsonapi.WriteError(w, jsonapi.NewError(http.StatusServiceUnavailable, "store_disabled", "Build Store Disabled").
			Detail("Build history is not enabled on this server").
			Build())
	default:
		h.logger.Error().Err(err).Msg("build store query failed")
		jsonapi.WriteInternalError(w, "")
	}
}

// AssemblyErrors converts a compile error into JSON:API errors. It returns
// nil for errors that are not caused by the declaration.
func AssemblyErrors(err error) []jsonapi.Error {
	var (
		grammar   *schema.GrammarError
		missing   *registry.MissingSystemError
		duplicate *registry.DuplicateSystemError
	)
	switch {
	case errors.As(err, &grammar):
		return []jsonapi.Error{jsonapi.ErrGrammar(grammar.Pos.Line, grammar.Pos.Column, grammar.Msg)}
	case errors.As(err, &missing):
		return []jsonapi.Error{jsonapi.ErrMissingSystem(missing.Name)}
	case errors.As(err, &duplicate):
		return []jsonapi.Error{jsonapi.ErrDuplicateSystem(duplicate.Name, duplicate.Modules)}
	}

	var out []jsonapi.Error
	for _, e := range flatten(err) {
		var conflict *registry.ConflictError
		var pass *generate.PassError
		switch {
		case errors.As(e, &conflict):
			for _, c := range conflict.Conflicts {
				out = append(out, jsonapi.ErrModuleConflict(c.Key, c.Error()))
			}
		case errors.As(e, &pass):
			out = append(out, jsonapi.ErrGeneration(pass.Pass, pass.Err.Error()))
		}
	}
	return out
}

// flatten expands errors joined with errors.Join.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func selectBundle(res *app.BuildResult, only string) (any, error) {
	var names []string
	for _, name := range strings.Split(only, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return formatter.SelectParts(res.Bundle, names)
}

func buildResource(b storage.Build, withBundle bool) jsonapi.Resource {
	rb := jsonapi.NewResource(TypeBuild, b.ID).
		Attr("runtime", b.Runtime).
		Attr("source", b.Source).
		Attr("fingerprint", b.Fingerprint).
		Attr("module_count", b.ModuleCount).
		Attr("created_at", b.CreatedAt).
		Link("/builds/" + b.ID)
	if withBundle {
		rb.Attr("bundle", json.RawMessage(b.Bundle))
	}
	return rb.Build()
}
