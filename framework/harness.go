package framework

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const gatewayStatusPath = "/_/version"

// TestHarness manages communication with the gateway under test.
type TestHarness struct {
	gatewayBaseURL string
	baseURL        *url.URL
	gatewayInfo    GatewayInfo
	httpClient     *http.Client
	logger         Logger
}

// NewTestHarness creates a TestHarness instance, and verifies that the gateway is responding by
// querying its status resource, retrying until statusQueryTimeout elapses.
//
// All requests go through the specified transport, so that a caller can observe every exchange
// (for instance to validate it against a contract). If transport is nil, http.DefaultTransport
// is used.
func NewTestHarness(
	gatewayBaseURL string,
	statusQueryTimeout time.Duration,
	transport http.RoundTripper,
	debugLogger Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = NullLogger()
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	if startupOutput == nil {
		startupOutput = io.Discard
	}

	gatewayBaseURL = strings.TrimSuffix(gatewayBaseURL, "/")
	parsed, err := url.Parse(gatewayBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway URL %q: %w", gatewayBaseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid gateway URL %q: must be an absolute URL", gatewayBaseURL)
	}

	h := &TestHarness{
		gatewayBaseURL: gatewayBaseURL,
		baseURL:        parsed,
		httpClient:     &http.Client{Transport: transport},
		logger:         debugLogger,
	}

	// The status query bypasses the caller's transport; it is not part of any test.
	info, err := queryGatewayInfo(gatewayBaseURL+gatewayStatusPath, statusQueryTimeout, startupOutput)
	if err != nil {
		return nil, err
	}
	h.gatewayInfo = info

	return h, nil
}

// Close releases the idle connections held by the harness's transport. It should be called once
// every test, including its teardown, has finished.
func (h *TestHarness) Close() {
	h.httpClient.CloseIdleConnections()
}

func (h *TestHarness) GatewayInfo() GatewayInfo {
	return h.gatewayInfo
}

func (h *TestHarness) GatewayBaseURL() string {
	return h.gatewayBaseURL
}

// ResolveLocation turns a Location header value, which the gateway normally reports as an
// absolute path, into a full URL.
func (h *TestHarness) ResolveLocation(location string) (string, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("malformed resource location %q: %w", location, err)
	}
	return h.baseURL.ResolveReference(ref).String(), nil
}
