package testgateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/folio-org/gateway-contract-tests/servicedef"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, g *Gateway, method, path string, body interface{}) *httptest.ResponseRecorder {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func module(id string) servicedef.ModuleDescriptor {
	return servicedef.ModuleDescriptor{
		ID:               id,
		LaunchDescriptor: &servicedef.LaunchDescriptor{DockerImage: "image"},
	}
}

func deployment(id string) servicedef.DeploymentDescriptor {
	return servicedef.DeploymentDescriptor{SrvcID: id, NodeID: "localhost"}
}

func TestModuleLifecycle(t *testing.T) {
	g := New()

	w := do(t, g, "POST", servicedef.ProxyModulesPath, module("m1"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/_/proxy/modules/m1", w.Header().Get("Location"))
	assert.Equal(t, []string{"m1"}, g.Modules())

	w = do(t, g, "POST", servicedef.ProxyModulesPath, module("m1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, g, "GET", "/_/proxy/modules/m1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var md servicedef.ModuleDescriptor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &md))
	assert.Equal(t, "m1", md.ID)

	w = do(t, g, "DELETE", "/_/proxy/modules/m1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, g, "DELETE", "/_/proxy/modules/m1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, g.Modules())
}

func TestModuleWithoutID(t *testing.T) {
	w := do(t, New(), "POST", servicedef.ProxyModulesPath, module(""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeploymentWithContainers(t *testing.T) {
	g := New(WithContainers(true))
	do(t, g, "POST", servicedef.ProxyModulesPath, module("m1"))

	w := do(t, g, "POST", servicedef.DiscoveryModulesPath, deployment("m1"))
	require.Equal(t, http.StatusCreated, w.Code)
	location := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "/_/discovery/modules/m1/"), location)
	assert.Equal(t, []string{location}, g.Deployments())

	var dd servicedef.DeploymentDescriptor
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dd))
	assert.NotEmpty(t, dd.InstID)
	assert.Equal(t, location, servicedef.DiscoveryModulesPath+"/m1/"+dd.InstID)

	assert.Equal(t, http.StatusOK, do(t, g, "GET", location, nil).Code)
	assert.Equal(t, http.StatusNoContent, do(t, g, "DELETE", location, nil).Code)
	assert.Empty(t, g.Deployments())
}

func TestDeploymentWithoutContainers(t *testing.T) {
	g := New(WithContainers(false))
	do(t, g, "POST", servicedef.ProxyModulesPath, module("m1"))

	w := do(t, g, "POST", servicedef.DiscoveryModulesPath, deployment("m1"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
	assert.Empty(t, g.Deployments())
}

func TestDeploymentOfUnknownModule(t *testing.T) {
	w := do(t, New(WithContainers(true)), "POST", servicedef.DiscoveryModulesPath, deployment("m1"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFaults(t *testing.T) {
	t.Run("omit location", func(t *testing.T) {
		w := do(t, New(WithFault(FaultOmitLocation)), "POST", servicedef.ProxyModulesPath, module("m1"))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, w.Header().Get("Location"))
	})

	t.Run("malformed body", func(t *testing.T) {
		w := do(t, New(WithFault(FaultMalformedBody)), "POST", servicedef.ProxyModulesPath, module("m1"))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"name": 1}`, w.Body.String())
	})

	t.Run("reject deletes", func(t *testing.T) {
		g := New(WithFault(FaultRejectDeletes))
		do(t, g, "POST", servicedef.ProxyModulesPath, module("m1"))
		assert.Equal(t, http.StatusInternalServerError, do(t, g, "DELETE", "/_/proxy/modules/m1", nil).Code)
		assert.Equal(t, []string{"m1"}, g.Modules())
	})

	t.Run("ignore capability", func(t *testing.T) {
		g := New(WithContainers(false), WithFault(FaultIgnoreCapability))
		do(t, g, "POST", servicedef.ProxyModulesPath, module("m1"))
		assert.Equal(t, http.StatusCreated, do(t, g, "POST", servicedef.DiscoveryModulesPath, deployment("m1")).Code)
	})
}

func TestRequestsAreRecorded(t *testing.T) {
	g := New()
	do(t, g, "GET", "/_/version", nil)
	do(t, g, "POST", servicedef.ProxyModulesPath, module("m1"))
	do(t, g, "DELETE", "/_/proxy/modules/m1", nil)

	assert.Equal(t, []RequestRecord{
		{Method: "POST", Path: "/_/proxy/modules", Status: 201},
		{Method: "DELETE", Path: "/_/proxy/modules/m1", Status: 204},
	}, g.Requests())
}
