// Package testgateway is an in-memory stand-in for the gateway's module and discovery
// administration API, used to run the lifecycle tests without a real gateway.
package testgateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/folio-org/gateway-contract-tests/servicedef"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const Version = "0.0.0-testgateway"

// Fault makes the gateway misbehave in a specific way, to test how the harness copes.
type Fault int

const (
	// FaultOmitLocation answers successful creations without a Location header.
	FaultOmitLocation Fault = iota + 1
	// FaultMalformedBody answers successful creations with a body that is not a valid descriptor.
	FaultMalformedBody
	// FaultRejectDeletes answers every deletion with a server error, without deleting anything.
	FaultRejectDeletes
	// FaultIgnoreCapability accepts discovery registrations even without container support.
	FaultIgnoreCapability
)

// RequestRecord describes one request the gateway has handled.
type RequestRecord struct {
	Method string
	Path   string
	Status int
}

func (r RequestRecord) String() string {
	return fmt.Sprintf("%s %s %d", r.Method, r.Path, r.Status)
}

type Option func(*Gateway)

// WithContainers sets whether the gateway can launch containers, and therefore whether it
// accepts discovery registrations.
func WithContainers(available bool) Option {
	return func(g *Gateway) { g.containers = available }
}

func WithFault(f Fault) Option {
	return func(g *Gateway) { g.faults[f] = true }
}

// Gateway implements http.Handler.
type Gateway struct {
	containers  bool
	faults      map[Fault]bool
	modules     map[string]servicedef.ModuleDescriptor
	deployments map[string]servicedef.DeploymentDescriptor
	requests    []RequestRecord
	router      chi.Router
	lock        sync.Mutex
}

func New(options ...Option) *Gateway {
	g := &Gateway{
		faults:      make(map[Fault]bool),
		modules:     make(map[string]servicedef.ModuleDescriptor),
		deployments: make(map[string]servicedef.DeploymentDescriptor),
	}
	for _, o := range options {
		o(g)
	}

	r := chi.NewRouter()
	r.Use(g.recordRequests)
	r.Get("/_/version", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(Version))
	})
	r.Route(servicedef.ProxyModulesPath, func(r chi.Router) {
		r.Post("/", g.createModule)
		r.Get("/{moduleId}", g.getModule)
		r.Delete("/{moduleId}", g.deleteModule)
	})
	r.Route(servicedef.DiscoveryModulesPath, func(r chi.Router) {
		r.Post("/", g.createDeployment)
		r.Get("/{srvcId}/{instId}", g.getDeployment)
		r.Delete("/{srvcId}/{instId}", g.deleteDeployment)
	})
	g.router = r
	return g
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.router.ServeHTTP(w, r)
}

func (g *Gateway) recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if r.URL.Path == "/_/version" {
			return
		}
		g.lock.Lock()
		g.requests = append(g.requests, RequestRecord{Method: r.Method, Path: r.URL.Path, Status: ww.Status()})
		g.lock.Unlock()
	})
}

// Requests returns every request handled so far, other than status queries, oldest first.
func (g *Gateway) Requests() []RequestRecord {
	g.lock.Lock()
	defer g.lock.Unlock()
	return append([]RequestRecord(nil), g.requests...)
}

// Modules returns the IDs of the modules that are currently registered.
func (g *Gateway) Modules() []string {
	g.lock.Lock()
	defer g.lock.Unlock()
	ret := make([]string, 0, len(g.modules))
	for id := range g.modules {
		ret = append(ret, id)
	}
	sort.Strings(ret)
	return ret
}

// Deployments returns the locations of the discovery registrations that currently exist.
func (g *Gateway) Deployments() []string {
	g.lock.Lock()
	defer g.lock.Unlock()
	ret := make([]string, 0, len(g.deployments))
	for key := range g.deployments {
		ret = append(ret, servicedef.DiscoveryModulesPath+"/"+key)
	}
	sort.Strings(ret)
	return ret
}

func (g *Gateway) created(w http.ResponseWriter, location string, entity interface{}) {
	if !g.faults[FaultOmitLocation] {
		w.Header().Set("Location", location)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if g.faults[FaultMalformedBody] {
		_, _ = w.Write([]byte(`{"name": 1}`))
		return
	}
	_ = json.NewEncoder(w).Encode(entity)
}

func writeJSON(w http.ResponseWriter, entity interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entity)
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}

func (g *Gateway) createModule(w http.ResponseWriter, r *http.Request) {
	var md servicedef.ModuleDescriptor
	if err := json.NewDecoder(r.Body).Decode(&md); err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	if md.ID == "" {
		writeText(w, http.StatusBadRequest, "module id is required")
		return
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	if _, exists := g.modules[md.ID]; exists {
		writeText(w, http.StatusBadRequest, fmt.Sprintf("module %s already exists", md.ID))
		return
	}
	g.modules[md.ID] = md
	g.created(w, servicedef.ProxyModulesPath+"/"+md.ID, md)
}

func (g *Gateway) getModule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "moduleId")
	g.lock.Lock()
	md, ok := g.modules[id]
	g.lock.Unlock()
	if !ok {
		writeText(w, http.StatusNotFound, id)
		return
	}
	writeJSON(w, md)
}

func (g *Gateway) deleteModule(w http.ResponseWriter, r *http.Request) {
	if g.faults[FaultRejectDeletes] {
		writeText(w, http.StatusInternalServerError, "deletion failed")
		return
	}
	id := chi.URLParam(r, "moduleId")
	g.lock.Lock()
	defer g.lock.Unlock()
	if _, ok := g.modules[id]; !ok {
		writeText(w, http.StatusNotFound, id)
		return
	}
	delete(g.modules, id)
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) createDeployment(w http.ResponseWriter, r *http.Request) {
	var dd servicedef.DeploymentDescriptor
	if err := json.NewDecoder(r.Body).Decode(&dd); err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	md, ok := g.modules[dd.SrvcID]
	if !ok {
		writeText(w, http.StatusNotFound, dd.SrvcID)
		return
	}
	if dd.NodeID == "" {
		writeText(w, http.StatusBadRequest, "nodeId is required")
		return
	}
	if md.LaunchDescriptor == nil || md.LaunchDescriptor.DockerImage == "" {
		writeText(w, http.StatusBadRequest, fmt.Sprintf("module %s has no launch descriptor", md.ID))
		return
	}
	if !g.containers && !g.faults[FaultIgnoreCapability] {
		writeText(w, http.StatusBadRequest, "cannot deploy "+md.ID+": container support is not available")
		return
	}
	dd.InstID = uuid.New().String()
	dd.URL = "http://" + dd.NodeID + ":9131"
	key := dd.SrvcID + "/" + dd.InstID
	g.deployments[key] = dd
	g.created(w, servicedef.DiscoveryModulesPath+"/"+key, dd)
}

func (g *Gateway) getDeployment(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "srvcId") + "/" + chi.URLParam(r, "instId")
	g.lock.Lock()
	dd, ok := g.deployments[key]
	g.lock.Unlock()
	if !ok {
		writeText(w, http.StatusNotFound, key)
		return
	}
	writeJSON(w, dd)
}

func (g *Gateway) deleteDeployment(w http.ResponseWriter, r *http.Request) {
	if g.faults[FaultRejectDeletes] {
		writeText(w, http.StatusInternalServerError, "deletion failed")
		return
	}
	key := chi.URLParam(r, "srvcId") + "/" + chi.URLParam(r, "instId")
	g.lock.Lock()
	defer g.lock.Unlock()
	if _, ok := g.deployments[key]; !ok {
		writeText(w, http.StatusNotFound, key)
		return
	}
	delete(g.deployments, key)
	w.WriteHeader(http.StatusNoContent)
}
