// Package testdaemon provides a stand-in for the container daemon's image-list endpoint.
package testdaemon

import (
	"net/http"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
)

const ImagesPath = "/images/json"

// Image is the subset of the daemon's image summary that the probe looks at.
type Image struct {
	ID       string   `json:"Id"`
	RepoTags []string `json:"RepoTags,omitempty"`
}

// Handler answers image-list requests with the given images; any other path gets a 404.
func Handler(images ...Image) http.Handler {
	if images == nil {
		images = []Image{}
	}
	mux := http.NewServeMux()
	mux.Handle(ImagesPath, httphelpers.HandlerWithJSONResponse(images, nil))
	return mux
}

// WithTestImage is a daemon that has the image the gateway's own tests are built on.
func WithTestImage() http.Handler {
	return Handler(
		Image{ID: "sha256:1", RepoTags: []string{"okapi-test-module:latest"}},
		Image{ID: "sha256:2", RepoTags: []string{"folioci/mod-users:5.0.0-SNAPSHOT"}},
	)
}
