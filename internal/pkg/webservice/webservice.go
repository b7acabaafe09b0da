package webservice

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ohowland/gridfault/internal/pkg/catalog"
	"github.com/ohowland/gridfault/internal/pkg/runner"
	"github.com/ohowland/gridfault/internal/pkg/scenario"
)

// Config configures the HTTP listener.
type Config struct {
	Addr string
}

// App serves the scenario runner over HTTP.
type App struct {
	Runner  *runner.Runner
	Metrics http.Handler
	Config  Config
}

// ScenarioInfo describes a catalog scenario.
type ScenarioInfo struct {
	Name        string            `json:"name"`
	Category    scenario.Category `json:"category"`
	Description string            `json:"description"`
	Steps       []string          `json:"steps"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router returns the application routes.
func (app *App) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", app.BaseHandler)
	r.HandleFunc("/scenarios", app.ScenariosHandler).Methods("GET")
	r.HandleFunc("/scenarios/{name}", app.ScenarioHandler).Methods("GET")
	r.HandleFunc("/scenarios/{name}/run", app.RunHandler).Methods("POST")
	r.HandleFunc("/baseline", app.BaselineHandler).Methods("GET")
	r.HandleFunc("/catalog/{kind}", app.CatalogHandler).Methods("GET")
	if app.Metrics != nil {
		r.Handle("/metrics", app.Metrics).Methods("GET")
	}
	return r
}

// ListenAndServe blocks serving the router on the configured address.
func (app *App) ListenAndServe() error {
	log.Println("[Webservice] Starting Server on", app.Config.Addr)
	return http.ListenAndServe(app.Config.Addr, app.Router())
}

func (app *App) BaseHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
}

func (app *App) ScenariosHandler(w http.ResponseWriter, r *http.Request) {
	all := scenario.All()
	infos := make([]ScenarioInfo, len(all))
	for i, s := range all {
		infos[i] = info(s)
	}
	writeJSON(w, http.StatusOK, infos)
}

func (app *App) ScenarioHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s, err := scenario.Lookup(vars["name"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, info(s))
}

func (app *App) RunHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	report, err := app.Runner.Run(vars["name"])
	switch {
	case errors.Is(err, scenario.ErrUnknownScenario):
		writeJSON(w, http.StatusNotFound, errorResponse{err.Error()})
	case err != nil:
		log.Println("[Webservice] run failed:", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{err.Error()})
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func (app *App) BaselineHandler(w http.ResponseWriter, r *http.Request) {
	report, err := app.Runner.Baseline()
	if err != nil {
		log.Println("[Webservice] baseline failed:", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (app *App) CatalogHandler(w http.ResponseWriter, r *http.Request) {
	kind := catalog.ElementKind(mux.Vars(r)["kind"])
	if kind != catalog.Trafo {
		writeJSON(w, http.StatusNotFound, errorResponse{"unknown element kind " + string(kind)})
		return
	}

	cat := app.Runner.Catalog()
	types := make(map[string]catalog.TrafoType)
	for _, name := range cat.Names(kind) {
		params, err := cat.Get(name, kind)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{err.Error()})
			return
		}
		types[name] = params
	}
	writeJSON(w, http.StatusOK, types)
}

func info(s scenario.Scenario) ScenarioInfo {
	return ScenarioInfo{
		Name:        s.Name,
		Category:    s.Category,
		Description: s.Description,
		Steps:       s.Steps(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Println("malformed JSON:", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Println("[Webservice] write failed:", err)
	}
}
