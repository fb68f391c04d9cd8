package dockertests

import (
	"context"
	"net/http"
	"time"

	"github.com/folio-org/gateway-contract-tests/contract"
	"github.com/folio-org/gateway-contract-tests/framework"
	"github.com/folio-org/gateway-contract-tests/probe"
	"github.com/folio-org/gateway-contract-tests/servicedef"

	"github.com/stretchr/testify/require"
)

const defaultTeardownTimeout = time.Second * 30

type environment struct {
	harness         *framework.TestHarness
	recorder        *contract.Recorder
	capability      probe.Result
	nodeID          string
	teardownTimeout time.Duration
}

// T represents a test or subtest in the lifecycle test suite.
//
// It implements the same basic functionality as Go's testing.T, on top of our lower-level
// framework package, so it can be passed to the assert and require packages as if it were a
// *testing.T.
//
// Every T keeps a ledger of the resources it has created in the gateway. When the test ends,
// however it ends, those resources are deleted in the order they were created.
type T struct {
	context *framework.Context
	env     *environment
	ledger  *framework.Ledger
}

func newTestScope(c *framework.Context, env *environment) *T {
	t := &T{
		context: c,
		env:     env,
		ledger:  &framework.Ledger{},
	}
	c.Defer(t.teardown)
	return t
}

func (t *T) teardown() {
	pending := t.ledger.Len()
	if pending == 0 {
		return
	}
	t.Debug("Teardown: %d resource(s) to delete", pending)

	// The scenario's own deadline may already have passed; cleanup still gets its chance.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(t.context.Ctx()), t.env.teardownTimeout)
	defer cancel()

	failures := t.ledger.Drain(func(location string) error {
		return t.env.harness.Delete(ctx, location, t.context.DebugLogger())
	}, t.context.DebugLogger())
	if len(failures) > 0 {
		t.Debug("Teardown: %d of %d deletion(s) failed", len(failures), pending)
	}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest. This is equivalent to the Run method of testing.T.
//
// The specified function receives a new T instance, with its own ledger.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		action(newTestScope(c, t.env))
	})
}

// Debug logs some debug output for the test. The output will be passed to the test logger at
// the end of the test.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

func (t *T) ID() framework.TestID {
	return t.context.ID()
}

// Capability returns the result of the container capability probe for this run.
func (t *T) Capability() probe.Result {
	return t.env.capability
}

// NodeID is the node that deployments are bound to.
func (t *T) NodeID() string {
	return t.env.nodeID
}

// PendingDeletions returns the locations that will be deleted when this test ends.
func (t *T) PendingDeletions() []string {
	return t.ledger.Pending()
}

// RegisterModule declares a module to the gateway and returns its location. The test fails and
// immediately exits if the gateway does not answer 201 with a Location.
func (t *T) RegisterModule(md servicedef.ModuleDescriptor) string {
	return t.requireCreated(servicedef.ProxyModulesPath, md)
}

// DeployModule binds a registered module to the configured node and returns the location of
// the deployment. The test fails and immediately exits if the gateway does not answer 201
// with a Location.
func (t *T) DeployModule(srvcID string) string {
	return t.requireCreated(servicedef.DiscoveryModulesPath, t.deployment(srvcID))
}

// RequireDeploymentRejected attempts to bind a registered module to the configured node, and
// fails the test unless the gateway rejects it with a 400.
func (t *T) RequireDeploymentRejected(srvcID string) {
	t.post(servicedef.DiscoveryModulesPath, t.deployment(srvcID), http.StatusBadRequest)
}

func (t *T) deployment(srvcID string) servicedef.DeploymentDescriptor {
	return servicedef.DeploymentDescriptor{SrvcID: srvcID, NodeID: t.env.nodeID}
}

func (t *T) requireCreated(path string, entity interface{}) string {
	ex := t.post(path, entity, http.StatusCreated)
	require.NotEmpty(t, ex.Location, "gateway did not return a Location for POST %s", path)
	return ex.Location
}

// post sends an entity to the gateway and checks the outcome: first the status, then the
// contract report for the exchange. Any resource the gateway says it created goes on the
// ledger before either check, so that a failing check does not leak it.
func (t *T) post(path string, entity interface{}, expectedStatus int) framework.Exchange {
	ex, err := t.env.harness.Post(t.context.Ctx(), path, entity, t.context.DebugLogger())
	if ex.Location != "" && ex.StatusCode >= 200 && ex.StatusCode < 300 {
		t.ledger.Append(ex.Location)
	}
	require.NoError(t, err, "POST %s", path)

	report := t.env.recorder.LastReport()
	require.Equal(t, expectedStatus, ex.StatusCode, "unexpected status for POST %s; response body: %s; contract: %s",
		path, string(ex.Body), report)
	t.RequireConformance(report)
	return ex
}

// RequireConformance fails the test and immediately exits if the contract report contains any
// violations.
func (t *T) RequireConformance(report contract.Report) {
	if !report.IsEmpty() {
		require.Fail(t, "exchange does not conform to the gateway contract", "contract: %s", report)
	}
}
