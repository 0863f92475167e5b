package api

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/fleetmap/pkg/buildinfo"
	"github.com/matzehuels/fleetmap/pkg/errors"
	"github.com/matzehuels/fleetmap/pkg/grid"
	"github.com/matzehuels/fleetmap/pkg/pipeline"
	"github.com/matzehuels/fleetmap/pkg/placement"
	"github.com/matzehuels/fleetmap/pkg/store"
)

// createRunRequest is a pipeline.Options document plus an optional obstacle
// grid in the text format. Fields left out keep the server defaults,
// including the fields of a partially given category.
type createRunRequest struct {
	pipeline.Options
	Categories map[placement.Category]placement.Override `json:"categories,omitempty"`
	Grid       string                                    `json:"grid,omitempty"`
}

// runResponse omits the archived grids; they are served by /grid.
type runResponse struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Options   pipeline.Options `json:"options"`
	Result    *pipeline.Result `json:"result"`
}

func newRunResponse(run *store.Run) runResponse {
	return runResponse{
		ID:        run.ID,
		CreatedAt: run.CreatedAt,
		Options:   run.Options,
		Result:    run.Result,
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, buildinfo.Get())
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	req := createRunRequest{Options: pipeline.FromConfig(s.Config)}

	body := http.MaxBytesReader(w, r.Body, s.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.writeJSON(w, r, http.StatusRequestEntityTooLarge, errorResponse{
				Error: "request body too large",
				Code:  errors.ErrCodeInvalidInput,
			})
			return
		}
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
		}
		s.writeError(w, r, err)
		return
	}

	opts := req.Options
	for cat, o := range req.Categories {
		opts.Categories[cat] = o.Apply(opts.Categories[cat])
	}
	if req.Grid != "" {
		g, err := grid.Read(strings.NewReader(req.Grid))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		opts.Obstacles = g
	}
	opts.Logger = s.Logger

	result, err := s.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	run := store.NewRun(opts, result)
	if err := s.Store.Save(r.Context(), run); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeUnavailable, err, "archive run"))
		return
	}
	s.Logger.Info("run created", "id", run.ID, "poi", result.Stats.POICount)

	w.Header().Set("Location", "/v1/runs/"+run.ID)
	s.writeJSON(w, r, http.StatusCreated, newRunResponse(run))
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}
	runs, err := s.Store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, newRunResponse(run))
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getRunPOI(w http.ResponseWriter, r *http.Request) {
	run, err := s.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if run.Result == nil || run.Result.POI == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "run %s has no POI document", run.ID))
		return
	}
	s.writeJSON(w, r, http.StatusOK, run.Result.POI)
}

var gridContentTypes = map[string]string{
	grid.FormatText: "text/plain; charset=utf-8",
	grid.FormatCSV:  "text/csv",
	grid.FormatPNG:  "image/png",
}

func (s *Server) getRunGrid(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = grid.FormatText
	}
	contentType, ok := gridContentTypes[format]
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "unsupported grid format %q (must be txt, csv, or png)", format))
		return
	}

	run, err := s.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := run.Grid(r.URL.Query().Get("layer"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := grid.Export(g, format, &buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
