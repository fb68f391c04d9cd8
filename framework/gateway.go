package framework

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GatewayInfo is status information returned by the gateway from the initial status query.
type GatewayInfo struct {
	Version string
}

// Exchange is one completed request/response pair with the gateway.
type Exchange struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte

	// Location is the resolved value of the Location header, or "" if there was none.
	Location string
}

func (e Exchange) String() string {
	return fmt.Sprintf("%s %s -> %d %s", e.Method, e.URL, e.StatusCode, string(e.Body))
}

func queryGatewayInfo(url string, timeout time.Duration, output io.Writer) (GatewayInfo, error) {
	fmt.Fprintf(output, "Connecting to gateway at %s", url)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := http.DefaultClient.Get(url)
		if err == nil {
			fmt.Fprintln(output)
			respData, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode != 200 {
				return GatewayInfo{}, fmt.Errorf("gateway returned status code %d", resp.StatusCode)
			}
			if readErr != nil {
				return GatewayInfo{}, readErr
			}
			fmt.Fprintf(output, "Gateway version: %s\n", string(bytes.TrimSpace(respData)))
			return GatewayInfo{Version: string(bytes.TrimSpace(respData))}, nil
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return GatewayInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		time.Sleep(time.Millisecond * 100)
	}
}

// Post sends a JSON entity to a gateway path and returns the exchange, whatever its status.
// An error is returned only if no response was received.
//
// The format of entity is defined by the caller; this low-level method simply calls
// json.Marshal to convert whatever it is to JSON.
func (h *TestHarness) Post(
	ctx context.Context,
	path string,
	entity interface{},
	logger Logger,
) (Exchange, error) {
	if logger == nil {
		logger = h.logger
	}
	data, err := json.Marshal(entity)
	if err != nil {
		return Exchange{}, err
	}
	logger.Printf("POST %s: %s", path, string(data))
	req, err := http.NewRequestWithContext(ctx, "POST", h.gatewayBaseURL+path, bytes.NewReader(data))
	if err != nil {
		return Exchange{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return h.do(req, logger)
}

// Delete tells the gateway to dispose of a resource that was previously created. The location
// may be absolute or relative to the gateway base URL. Any status other than 2xx is an error.
func (h *TestHarness) Delete(ctx context.Context, location string, logger Logger) error {
	if logger == nil {
		logger = h.logger
	}
	resourceURL, err := h.ResolveLocation(location)
	if err != nil {
		return err
	}
	logger.Printf("DELETE %s", resourceURL)
	req, err := http.NewRequestWithContext(ctx, "DELETE", resourceURL, nil)
	if err != nil {
		return err
	}
	ex, err := h.do(req, logger)
	if err != nil {
		return err
	}
	if ex.StatusCode < 200 || ex.StatusCode >= 300 {
		return fmt.Errorf("DELETE request to gateway returned HTTP status %d", ex.StatusCode)
	}
	return nil
}

func (h *TestHarness) do(req *http.Request, logger Logger) (Exchange, error) {
	resp, err := h.httpClient.Do(req)
	if err != nil {
		logger.Printf("%s %s failed: %s", req.Method, req.URL, err)
		return Exchange{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Exchange{}, fmt.Errorf("error reading response body from %s: %w", req.URL, err)
	}
	ex := Exchange{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}
	if location := resp.Header.Get("Location"); location != "" {
		if ex.Location, err = h.ResolveLocation(location); err != nil {
			return ex, err
		}
	}
	logger.Printf("Response: %d, Location: %q, body: %s", ex.StatusCode, ex.Location, string(body))
	return ex, nil
}
