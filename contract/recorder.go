package contract

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Recorder is an http.RoundTripper that checks every exchange passing through it against a
// contract. The request and response seen by the caller are exactly those of the underlying
// transport; the recorder only keeps a Report for each exchange.
//
// An exchange that fails at the transport level produces no report.
type Recorder struct {
	contract  *Contract
	transport http.RoundTripper
	basePath  string
	reports   []Report
	lock      sync.Mutex
}

// NewRecorder wraps a transport. The basePath, if any, is the path of the gateway base URL; it
// is removed from request paths before they are matched against the contract.
func NewRecorder(contract *Contract, transport http.RoundTripper, basePath string) *Recorder {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Recorder{
		contract:  contract,
		transport: transport,
		basePath:  strings.TrimSuffix(basePath, "/"),
	}
}

func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	var requestBody []byte
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("could not read request body for contract check: %w", err)
		}
		requestBody, err = io.ReadAll(body)
		body.Close()
		if err != nil {
			return nil, fmt.Errorf("could not read request body for contract check: %w", err)
		}
	}

	resp, err := r.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	responseBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(responseBody))
	if err != nil {
		return nil, err
	}

	report := r.contract.Check(Exchange{
		Method:             req.Method,
		Path:               strings.TrimPrefix(req.URL.Path, r.basePath),
		RequestContentType: req.Header.Get("Content-Type"),
		RequestBody:        requestBody,
		StatusCode:         resp.StatusCode,
		ResponseHeader:     resp.Header,
		ResponseBody:       responseBody,
	})
	r.lock.Lock()
	r.reports = append(r.reports, report)
	r.lock.Unlock()

	return resp, nil
}

// CloseIdleConnections closes the idle connections of the underlying transport, if it keeps any.
func (r *Recorder) CloseIdleConnections() {
	type closeIdler interface{ CloseIdleConnections() }
	if c, ok := r.transport.(closeIdler); ok {
		c.CloseIdleConnections()
	}
}

// LastReport returns the report for the most recent exchange. It is empty if there has not
// been one.
func (r *Recorder) LastReport() Report {
	r.lock.Lock()
	defer r.lock.Unlock()
	if len(r.reports) == 0 {
		return Report{}
	}
	return r.reports[len(r.reports)-1]
}

// Reports returns the reports for all exchanges so far, oldest first.
func (r *Recorder) Reports() []Report {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Report(nil), r.reports...)
}
