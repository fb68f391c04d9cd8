// Package contract checks HTTP exchanges with the gateway against a declared interface contract:
// which paths and methods exist, what request bodies they accept, and which statuses, headers
// and response bodies they may answer with.
//
// Checking never changes an exchange. Deviations are collected in a Report, which the caller
// is expected to inspect after every exchange.
package contract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

const schemaBaseURL = "https://contract.local/schemas/"

//go:embed gateway.yaml
var defaultContractYAML []byte

// Contract is a compiled interface contract.
type Contract struct {
	title     string
	endpoints []*endpoint
}

type endpoint struct {
	method    string
	path      string
	segments  []string
	request   *jsonschema.Schema
	responses map[int]response
}

type response struct {
	headers []string
	schema  *jsonschema.Schema
}

type document struct {
	Title     string                 `yaml:"title"`
	Endpoints []endpointDocument     `yaml:"endpoints"`
	Schemas   map[string]interface{} `yaml:"schemas"`
}

type endpointDocument struct {
	Path      string                   `yaml:"path"`
	Method    string                   `yaml:"method"`
	Request   *bodyDocument            `yaml:"request"`
	Responses map[int]responseDocument `yaml:"responses"`
}

type bodyDocument struct {
	Schema string `yaml:"schema"`
}

type responseDocument struct {
	Headers []string `yaml:"headers"`
	Schema  string   `yaml:"schema"`
}

// Default returns the built-in contract for the gateway's module and discovery administration API.
func Default() *Contract {
	c, err := Parse(defaultContractYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in contract is invalid: %s", err))
	}
	return c
}

// LoadFile reads and compiles a contract from a YAML file.
func LoadFile(path string) (*Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("contract %s: %w", path, err)
	}
	return c, nil
}

// Parse compiles a contract from its YAML representation.
func Parse(data []byte) (*Contract, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed contract: %w", err)
	}
	if len(doc.Endpoints) == 0 {
		return nil, errors.New("contract declares no endpoints")
	}

	schemas, err := compileSchemas(doc.Schemas)
	if err != nil {
		return nil, err
	}
	lookup := func(name string) (*jsonschema.Schema, error) {
		if name == "" {
			return nil, nil
		}
		s, ok := schemas[name]
		if !ok {
			return nil, fmt.Errorf("unknown schema %q", name)
		}
		return s, nil
	}

	c := &Contract{title: doc.Title}
	for _, ed := range doc.Endpoints {
		if ed.Path == "" || ed.Method == "" {
			return nil, errors.New("every endpoint needs a path and a method")
		}
		e := &endpoint{
			method:    strings.ToUpper(ed.Method),
			path:      ed.Path,
			segments:  splitPath(ed.Path),
			responses: make(map[int]response),
		}
		if ed.Request != nil {
			if e.request, err = lookup(ed.Request.Schema); err != nil {
				return nil, fmt.Errorf("%s %s: %w", e.method, e.path, err)
			}
		}
		for status, rd := range ed.Responses {
			s, err := lookup(rd.Schema)
			if err != nil {
				return nil, fmt.Errorf("%s %s %d: %w", e.method, e.path, status, err)
			}
			e.responses[status] = response{headers: rd.Headers, schema: s}
		}
		c.endpoints = append(c.endpoints, e)
	}
	return c, nil
}

func compileSchemas(raw map[string]interface{}) (map[string]*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	names := make([]string, 0, len(raw))
	for name, doc := range raw {
		// Round-trip through JSON so that the schema library sees the same value types it
		// would have produced itself.
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		value, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		if err := compiler.AddResource(schemaURL(name), value); err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	ret := make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		s, err := compiler.Compile(schemaURL(name))
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		ret[name] = s
	}
	return ret, nil
}

func schemaURL(name string) string {
	return schemaBaseURL + name + ".json"
}

func (c *Contract) Title() string {
	return c.title
}

// Exchange is the information about one request/response pair that the contract is checked against.
type Exchange struct {
	Method             string
	Path               string
	RequestContentType string
	RequestBody        []byte
	StatusCode         int
	ResponseHeader     http.Header
	ResponseBody       []byte
}

// Check replays an exchange against the contract. The report is empty if the exchange conforms.
func (c *Contract) Check(ex Exchange) Report {
	var report Report
	e := c.find(ex.Method, ex.Path)
	if e == nil {
		report.addRequest("%s %s is not declared in the contract", ex.Method, ex.Path)
		return report
	}

	if e.request != nil {
		if !strings.HasPrefix(strings.ToLower(ex.RequestContentType), "application/json") {
			report.addRequest("Content-Type %q is not application/json", ex.RequestContentType)
		}
		if msg := validateBody(e.request, ex.RequestBody); msg != "" {
			report.addRequest("body: %s", msg)
		}
	} else if len(bytes.TrimSpace(ex.RequestBody)) > 0 {
		report.addRequest("%s %s does not accept a request body", e.method, e.path)
	}

	r, ok := e.responses[ex.StatusCode]
	if !ok {
		report.addResponse("status %d is not declared for %s %s", ex.StatusCode, e.method, e.path)
		return report
	}
	for _, h := range r.headers {
		if ex.ResponseHeader.Get(h) == "" {
			report.addResponse("required header %s is missing", h)
		}
	}
	if r.schema != nil {
		if msg := validateBody(r.schema, ex.ResponseBody); msg != "" {
			report.addResponse("body: %s", msg)
		}
	}
	return report
}

func validateBody(schema *jsonschema.Schema, body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return "missing, expected JSON"
	}
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Sprintf("not valid JSON: %s", err)
	}
	if err := schema.Validate(value); err != nil {
		return strings.ReplaceAll(err.Error(), "\n", "; ")
	}
	return ""
}

func (c *Contract) find(method, path string) *endpoint {
	segments := splitPath(path)
	for _, e := range c.endpoints {
		if e.method == strings.ToUpper(method) && matchSegments(e.segments, segments) {
			return e
		}
	}
	return nil
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func matchSegments(pattern, actual []string) bool {
	if len(pattern) != len(actual) {
		return false
	}
	for i, p := range pattern {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if actual[i] == "" {
				return false
			}
			continue
		}
		if p != actual[i] {
			return false
		}
	}
	return true
}
