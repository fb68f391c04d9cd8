package main

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/folio-org/gateway-contract-tests/framework"
	"github.com/folio-org/gateway-contract-tests/probe"

	"github.com/alessio/shellescape"
)

const (
	defaultNodeID             = "localhost"
	defaultScenarioTimeout    = time.Minute * 2
	defaultStatusQueryTimeout = time.Second * 10
)

type commandParams struct {
	gatewayURL         string
	dockerURL          string
	imagePrefix        string
	nodeID             string
	contractPath       string
	timeout            time.Duration
	statusQueryTimeout time.Duration
	filters            framework.RegexFilters
	debug              bool
	debugAll           bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.StringVar(&c.gatewayURL, "url", "", "gateway base URL")
	fs.StringVar(&c.dockerURL, "docker-url", probe.DefaultDaemonURL, "container daemon URL used to detect test images")
	fs.StringVar(&c.imagePrefix, "image-prefix", probe.DefaultImagePrefix, "tag prefix of the image that marks containers as available")
	fs.StringVar(&c.nodeID, "node-id", defaultNodeID, "node that modules are deployed to")
	fs.StringVar(&c.contractPath, "contract", "", "YAML contract file to validate exchanges against (default: built-in)")
	fs.DurationVar(&c.timeout, "timeout", defaultScenarioTimeout, "deadline for the test scenarios, not counting cleanup")
	fs.DurationVar(&c.statusQueryTimeout, "status-timeout", defaultStatusQueryTimeout, "how long to wait for the gateway to respond")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if c.gatewayURL == "" {
		fmt.Fprintln(os.Stderr, "-url is required")
		fs.Usage()
		return false
	}
	return true
}

// rerunCommand builds a command line that repeats this run, restricted to the given tests.
func (c *commandParams) rerunCommand(program string, failed []framework.TestResult) string {
	var b commandBuilder
	b.add(program, "-url", c.gatewayURL)
	if c.dockerURL != probe.DefaultDaemonURL {
		b.add("-docker-url", c.dockerURL)
	}
	if c.imagePrefix != probe.DefaultImagePrefix {
		b.add("-image-prefix", c.imagePrefix)
	}
	if c.nodeID != defaultNodeID {
		b.add("-node-id", c.nodeID)
	}
	if c.contractPath != "" {
		b.add("-contract", c.contractPath)
	}
	if c.timeout != defaultScenarioTimeout {
		b.add("-timeout", c.timeout.String())
	}
	// A filter applies at every level, so each enclosing test has to be selected as well.
	seen := make(map[string]bool)
	for _, f := range failed {
		for i := 1; i <= len(f.TestID.Path); i++ {
			name := framework.TestID{Path: f.TestID.Path[:i]}.String()
			if !seen[name] {
				seen[name] = true
				b.add("-run", "^"+regexp.QuoteMeta(name)+"$")
			}
		}
	}
	b.add("-debug")
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
