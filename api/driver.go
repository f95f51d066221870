// Package api exposes elaboration as a small HTTP service: POST a yaml
// fixture, get back the diagnostic and netlist summary as JSON.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/velab/elaborate"
	"github.com/sarchlab/velab/pform"
	"github.com/sarchlab/velab/synth"
)

// ElaborateRequest is the POST /elaborate body: a pform fixture document
// plus the root module to elaborate.
type ElaborateRequest struct {
	Root       string `yaml:"root"`
	Synthesize bool   `yaml:"synthesize"`
	pform.FixtureRoot `yaml:",inline"`
}

// IssueJSON is one diagnostic in the response.
type IssueJSON struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// ElaborateResponse summarizes one elaboration run.
type ElaborateResponse struct {
	DesignID string      `json:"design_id,omitempty"`
	Errors   int         `json:"errors"`
	Signals  int         `json:"signals"`
	Memories int         `json:"memories"`
	Nodes    int         `json:"nodes"`
	Procs    int         `json:"procs"`
	Issues   []IssueJSON `json:"issues,omitempty"`
}

type serverImpl struct {
	addr   string
	router *mux.Router
	logger *slog.Logger
}

func (s *serverImpl) routes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/elaborate", s.handleElaborate).Methods(http.MethodPost)
}

func (s *serverImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "ok\n")
}

func (s *serverImpl) handleElaborate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req ElaborateRequest
	if err := yaml.Unmarshal(body, &req); err != nil {
		http.Error(w, "parsing fixture: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Root == "" {
		http.Error(w, "missing root module name", http.StatusBadRequest)
		return
	}

	modules := make(map[string]*pform.Module, len(req.Modules))
	for i := range req.Modules {
		mod, err := req.Modules[i].ToModule()
		if err != nil {
			http.Error(w, "converting fixture: "+err.Error(), http.StatusBadRequest)
			return
		}
		modules[mod.Name] = mod
	}

	des, report := elaborate.Elaborate(modules, nil, req.Root)
	resp := ElaborateResponse{Errors: report.Errors}
	for _, iss := range report.Issues {
		resp.Issues = append(resp.Issues, IssueJSON{
			File: iss.File, Line: iss.Line,
			Severity: iss.Severity.String(), Message: iss.Message,
		})
	}
	if des != nil {
		if req.Synthesize && !report.HasErrors() {
			synth.Run(des)
		}
		resp.DesignID = des.ID
		resp.Signals = len(des.Signals())
		resp.Memories = len(des.Memories())
		resp.Nodes = len(des.Nodes())
		resp.Procs = len(des.Procs())
	}

	s.logger.Info("elaboration served",
		"root", req.Root, "errors", resp.Errors, "signals", resp.Signals)

	w.Header().Set("Content-Type", "application/json")
	if des == nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	json.NewEncoder(w).Encode(resp)
}

// ListenAndServe runs the server until the listener fails.
func (s *serverImpl) ListenAndServe() error {
	return http.ListenAndServe(s.addr, s.router)
}

// Handler exposes the router for embedding in another mux or a test server.
func (s *serverImpl) Handler() http.Handler { return s.router }
