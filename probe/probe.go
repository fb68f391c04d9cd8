// Package probe determines whether the environment can run containers for the gateway, by asking
// the container daemon which images it has. A probe never fails fatally: any problem reaching
// the daemon simply means the capability is absent.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/folio-org/gateway-contract-tests/framework"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	DefaultDaemonURL   = "http://localhost:4243"
	DefaultImagePrefix = "okapi-test-module"
	DefaultTimeout     = time.Second * 10

	imagesPath = "/images/json?all=1"
)

// Config describes where the daemon is and what image marks the environment as capable.
//
// An empty DaemonURL means the daemon is located from the DOCKER_HOST environment variable,
// or the default local socket.
type Config struct {
	DaemonURL   string
	ImagePrefix string
	Timeout     time.Duration
}

// Result is the outcome of a probe. It is produced once per run and never modified.
type Result struct {
	// Available is true if the daemon has at least one image tagged with the sentinel prefix.
	Available bool

	// Code identifies the reason the capability is absent. It is empty on success, and also
	// when the daemon could not be reached at all; Message then holds the transport error.
	Code Code

	Message string
}

func (r Result) String() string {
	if r.Available {
		return "available"
	}
	if r.Code != "" {
		return fmt.Sprintf("unavailable (%s: %s)", r.Code, r.Message)
	}
	return fmt.Sprintf("unavailable (%s)", r.Message)
}

// Prober queries a container daemon for test images.
type Prober struct {
	config Config
	logger framework.Logger
}

func NewProber(config Config, logger framework.Logger) *Prober {
	if config.ImagePrefix == "" {
		config.ImagePrefix = DefaultImagePrefix
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Prober{config: config, logger: logger}
}

// Probe issues a single image-list request to the daemon and inspects the tags it reports.
//
// The daemon client only locates the daemon and prepares its transport. The status and body
// of the answer are judged here, so that any status other than 200 is reported along with
// the body exactly as the daemon sent it.
func (p *Prober) Probe(ctx context.Context) Result {
	pool, err := dockertest.NewPool(p.config.DaemonURL)
	if err != nil {
		p.logger.Printf("Could not create Docker client for %q: %s", p.config.DaemonURL, err)
		return Result{Message: err.Error()}
	}
	pool.Client.SetTimeout(p.config.Timeout)

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	baseURL, err := daemonBaseURL(pool.Client.Endpoint(), pool.Client.TLSConfig != nil)
	if err != nil {
		p.logger.Printf("Invalid Docker daemon endpoint %q: %s", pool.Client.Endpoint(), err)
		return Result{Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+imagesPath, nil)
	if err != nil {
		return Result{Message: err.Error()}
	}
	// A redirect is an answer like any other non-200 status, not something to follow.
	client := *pool.Client.HTTPClient
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	resp, err := client.Do(req)
	if err != nil {
		p.logger.Printf("Docker daemon request failed: %s", err)
		return Result{Message: err.Error()}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Printf("Could not read response from Docker daemon: %s", err)
		return Result{Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		m := Message(CodeDaemonStatus, resp.StatusCode, string(body))
		p.logger.Printf("%s", m)
		return Result{Code: CodeDaemonStatus, Message: m}
	}

	var images []docker.APIImages
	if err := json.Unmarshal(body, &images); err != nil {
		// A daemon that answers 200 with something other than an image list has no test
		// images as far as we can tell.
		p.logger.Printf("Could not parse image list from Docker daemon: %s", err)
		return Result{Code: CodeNoTestImage, Message: Message(CodeNoTestImage, p.config.ImagePrefix)}
	}

	tags := MatchingTags(images, p.config.ImagePrefix)
	if len(tags) == 0 {
		return Result{Code: CodeNoTestImage, Message: Message(CodeNoTestImage, p.config.ImagePrefix)}
	}
	p.logger.Printf("Found test images: %s", strings.Join(tags, ", "))
	return Result{Available: true}
}

// daemonBaseURL turns a daemon endpoint, as accepted by the Docker client, into the base of
// an HTTP URL. Requests to a local socket use a placeholder host, since the client's
// transport dials the socket itself.
func daemonBaseURL(endpoint string, useTLS bool) (string, error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "tcp://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "unix", "npipe":
		return "http://unix.sock", nil
	case "tcp", "http", "https":
		scheme := u.Scheme
		if useTLS {
			scheme = "https"
		} else if scheme == "tcp" {
			scheme = "http"
		}
		return scheme + "://" + u.Host + strings.TrimSuffix(u.Path, "/"), nil
	default:
		return "", fmt.Errorf("unsupported Docker endpoint scheme %q", u.Scheme)
	}
}

// MatchingTags returns every repository tag, across all of the images, that starts with prefix.
func MatchingTags(images []docker.APIImages, prefix string) []string {
	var ret []string
	for _, image := range images {
		for _, tag := range image.RepoTags {
			if strings.HasPrefix(tag, prefix) {
				ret = append(ret, tag)
			}
		}
	}
	return ret
}
