package framework

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/fatih/color"
)

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

// PrintResults writes a summary of the test run to standard output.
func PrintResults(results Results) {
	if results.OK() {
		color.Green("All tests passed")
		return
	}
	color.Red("FAILED TESTS (%d):", len(results.Failures))
	for _, f := range results.Failures {
		fmt.Printf("  * %s\n", f.TestID)
	}
}

var labeledLine = regexp.MustCompile(`^\t([A-Za-z ]+):\s*\t(.*)$`)

// reformatError strips the trace that testify puts in front of assertion failures; it only
// ever points at the assertion helpers.
func reformatError(err error) error {
	lines := strings.Split(strings.TrimLeft(err.Error(), "\n"), "\n")
	var out []string
	inTrace := false
	for _, line := range lines {
		if m := labeledLine.FindStringSubmatch(line); m != nil {
			inTrace = m[1] == "Error Trace"
			if !inTrace {
				out = append(out, m[1]+": "+m[2])
			}
			continue
		}
		if inTrace {
			continue
		}
		out = append(out, strings.TrimLeft(line, "\t "))
	}
	return errors.New(strings.Join(out, "\n"))
}
