package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/folio-org/gateway-contract-tests/contract"
	"github.com/folio-org/gateway-contract-tests/dockertests"
	"github.com/folio-org/gateway-contract-tests/framework"
	"github.com/folio-org/gateway-contract-tests/probe"
)

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	c, err := loadContract(params.contractPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Contract error: %s\n", err)
		os.Exit(1)
	}
	gatewayURL, err := url.Parse(params.gatewayURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid gateway URL: %s\n", err)
		os.Exit(1)
	}
	recorder := contract.NewRecorder(c, http.DefaultTransport, gatewayURL.Path)

	harness, err := framework.NewTestHarness(
		params.gatewayURL,
		params.statusQueryTimeout,
		recorder,
		mainDebugLogger,
		os.Stdout,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Gateway error: %s\n", err)
		os.Exit(1)
	}

	prober := probe.NewProber(probe.Config{
		DaemonURL:   params.dockerURL,
		ImagePrefix: params.imagePrefix,
	}, mainDebugLogger)
	capability := prober.Probe(context.Background())
	fmt.Printf("Container capability: %s\n", capability)

	fmt.Println()
	framework.PrintFilterDescription(params.filters)

	fmt.Println("Running test suite")

	testLogger := &ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	ctx, cancel := context.WithTimeout(context.Background(), params.timeout)
	results := dockertests.RunTestSuite(ctx, dockertests.SuiteParams{
		Harness:    harness,
		Recorder:   recorder,
		Capability: capability,
		NodeID:     params.nodeID,
	}, params.filters.AsFilter, testLogger)
	cancel()
	harness.Close()

	fmt.Println()
	framework.PrintResults(results)
	if !results.OK() {
		fmt.Println()
		fmt.Println("To run only the failed tests again:")
		fmt.Printf("  %s\n", params.rerunCommand(os.Args[0], results.Failures))
		os.Exit(1)
	}
}

func loadContract(path string) (*contract.Contract, error) {
	if path == "" {
		return contract.Default(), nil
	}
	return contract.LoadFile(path)
}
