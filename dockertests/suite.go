package dockertests

import (
	"context"
	"time"

	"github.com/folio-org/gateway-contract-tests/contract"
	"github.com/folio-org/gateway-contract-tests/framework"
	"github.com/folio-org/gateway-contract-tests/probe"
)

// SuiteParams is everything the suite needs from its caller.
//
// Recorder must be the transport the harness was created with, so that the suite sees the
// contract report for each of its exchanges.
type SuiteParams struct {
	Harness         *framework.TestHarness
	Recorder        *contract.Recorder
	Capability      probe.Result
	NodeID          string
	TeardownTimeout time.Duration
}

func RunTestSuite(
	ctx context.Context,
	params SuiteParams,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	env := &environment{
		harness:         params.Harness,
		recorder:        params.Recorder,
		capability:      params.Capability,
		nodeID:          params.NodeID,
		teardownTimeout: params.TeardownTimeout,
	}
	if env.teardownTimeout <= 0 {
		env.teardownTimeout = defaultTeardownTimeout
	}
	return framework.Run(ctx, filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c, env)

		t.Run("module lifecycle", DoModuleLifecycleTests)
	})
}
