package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/templar-cli/templar/pkg/buildinfo"
	tmplerrors "github.com/templar-cli/templar/pkg/errors"
	"github.com/templar-cli/templar/pkg/graphio"
	"github.com/templar-cli/templar/pkg/inherit"
	"github.com/templar-cli/templar/pkg/pipeline"
	"github.com/templar-cli/templar/pkg/registry"
	"github.com/templar-cli/templar/pkg/resolver"
)

const maxRequestBytes = 4 << 20 // 4 MB

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// conflictResponse is the wire form of one dependency conflict.
type conflictResponse struct {
	Name        string   `json:"name"`
	Reason      string   `json:"reason"`
	Constraints []string `json:"constraints"`
	RequestedBy []string `json:"requested_by"`
}

// resolveResponse is the body of POST /api/v1/resolve.
type resolveResponse struct {
	RunID        string             `json:"run_id"`
	TemplateID   string             `json:"template_id"`
	Versions     map[string]string  `json:"versions"`
	Order        []string           `json:"order"`
	InstallOrder []string           `json:"install_order,omitempty"`
	Conflicts    []conflictResponse `json:"conflicts,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
	Graph        *graphio.Graph     `json:"graph,omitempty"`
	Cached       bool               `json:"cached,omitempty"`
}

// composeResponse is the body of POST /api/v1/compose.
type composeResponse struct {
	RunID      string                `json:"run_id"`
	TemplateID string                `json:"template_id"`
	Template   *registry.ManifestDoc `json:"template"`
	Versions   map[string]string     `json:"versions"`
	Errors     []string              `json:"errors,omitempty"`
	Warnings   []string              `json:"warnings,omitempty"`
	Cached     bool                  `json:"cached,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// handleGetManifest serves GET /api/v1/manifests/{id}. A bare name
// resolves to the highest published version.
func (s *Server) handleGetManifest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := s.cfg.Store.LoadManifest(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, registry.FromManifest(m))
}

// handleGetVersions serves GET /api/v1/templates/{name}/versions.
// Unknown names yield an empty list, matching catalog semantics.
func (s *Server) handleGetVersions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	versions, err := s.cfg.Catalog.CandidateVersions(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]string, 0, len(versions))
	for _, v := range versions {
		out = append(out, v.String())
	}
	writeJSON(w, http.StatusOK, map[string][]string{"versions": out})
}

// handleListTemplates serves GET /api/v1/templates.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Publisher == nil {
		s.writeError(w, tmplerrors.New(tmplerrors.ErrCodeUnsupported, "store does not support listing"))
		return
	}
	names, err := s.cfg.Publisher.ListTemplates(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"templates": names})
}

// handlePublish serves POST /api/v1/manifests.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Publisher == nil {
		s.writeError(w, tmplerrors.New(tmplerrors.ErrCodeUnsupported, "store is read-only"))
		return
	}

	var doc registry.ManifestDoc
	if err := decodeJSON(r, &doc); err != nil {
		s.writeError(w, err)
		return
	}
	m, err := doc.ToManifest()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.cfg.Publisher.Publish(r.Context(), m); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("published template", "id", m.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": m.ID})
}

// handleResolve serves POST /api/v1/resolve: runs chain + resolution for
// the requested template and returns the version plan with the full graph.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := decodeJSON(r, &opts); err != nil {
		s.writeError(w, err)
		return
	}
	opts.Logger = s.logger

	res, err := s.runner().Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body := resolveResponse{
		RunID:        res.RunID,
		TemplateID:   res.TemplateID,
		Versions:     versionStrings(res),
		Order:        res.Order,
		InstallOrder: res.InstallOrder,
		Warnings:     res.Warnings,
		Cached:       res.CacheInfo.ResultHit,
	}
	for _, c := range res.Conflicts {
		cr := conflictResponse{Name: c.Name, Reason: c.Reason, RequestedBy: c.RequestedBy}
		for _, constraint := range c.Constraints {
			cr.Constraints = append(cr.Constraints, constraint.String())
		}
		body.Conflicts = append(body.Conflicts, cr)
	}
	if res.Resolution != nil && res.Resolution.Graph != nil {
		g := graphio.FromGraph(res.Resolution.Graph)
		body.Graph = &g
	}

	status := http.StatusOK
	if len(body.Conflicts) > 0 {
		status = http.StatusConflict
	}
	writeJSON(w, status, body)
}

// handleCompose serves POST /api/v1/compose: runs the full pipeline and
// returns the composed template definition.
func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := decodeJSON(r, &opts); err != nil {
		s.writeError(w, err)
		return
	}
	opts.Logger = s.logger

	res, err := s.runner().Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body := composeResponse{
		RunID:      res.RunID,
		TemplateID: res.TemplateID,
		Versions:   versionStrings(res),
		Warnings:   res.Warnings,
		Cached:     res.CacheInfo.ResultHit,
	}
	if res.Template != nil {
		body.Template = registry.FromManifest(res.Template)
	}
	for _, c := range res.Conflicts {
		body.Errors = append(body.Errors, c.String())
	}
	for _, err := range res.ComposeErrors {
		body.Errors = append(body.Errors, err.Error())
	}

	status := http.StatusOK
	if len(body.Errors) > 0 {
		status = http.StatusConflict
	}
	writeJSON(w, status, body)
}

func (s *Server) runner() *pipeline.Runner {
	return pipeline.NewRunner(s.cfg.Store, s.cfg.Catalog, s.cfg.Cache, nil)
}

func versionStrings(res *pipeline.Result) map[string]string {
	out := make(map[string]string, len(res.Versions))
	for name, v := range res.Versions {
		out[name] = v.String()
	}
	return out
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return tmplerrors.Wrap(tmplerrors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error's code to an HTTP status and writes the JSON
// error envelope.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := tmplerrors.GetCode(err)
	if code == "" {
		// Cycle and depth failures from the pipeline are typed, not coded.
		var inheritCycle *inherit.CycleError
		var resolveCycle *resolver.CycleError
		var depth *inherit.DepthError
		switch {
		case errors.As(err, &inheritCycle), errors.As(err, &resolveCycle):
			code = tmplerrors.ErrCodeCycle
		case errors.As(err, &depth):
			code = tmplerrors.ErrCodeDepthExceeded
		}
	}
	if code == "" {
		code = tmplerrors.ErrCodeInternal
	}

	status := http.StatusInternalServerError
	switch code {
	case tmplerrors.ErrCodeNotFound, tmplerrors.ErrCodeTemplateNotFound,
		tmplerrors.ErrCodeVersionNotFound, tmplerrors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case tmplerrors.ErrCodeInvalidInput, tmplerrors.ErrCodeInvalidVersion,
		tmplerrors.ErrCodeInvalidConstraint, tmplerrors.ErrCodeInvalidTemplate,
		tmplerrors.ErrCodeInvalidManifest, tmplerrors.ErrCodeInvalidPath,
		tmplerrors.ErrCodeInvalidStrategy:
		status = http.StatusBadRequest
	case tmplerrors.ErrCodeCycle, tmplerrors.ErrCodeDepthExceeded:
		status = http.StatusUnprocessableEntity
	case tmplerrors.ErrCodeUnsupported:
		status = http.StatusMethodNotAllowed
	case tmplerrors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}

	var body errorResponse
	body.Error.Code = string(code)
	body.Error.Message = tmplerrors.UserMessage(err)
	writeJSON(w, status, body)
}
