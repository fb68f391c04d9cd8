package framework

// TestLogger receives progress notifications from Run. The command-line tool prints them to
// the console; tests of the harness itself record them.
type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)

	// TestFinished is called once the test and all of its deferred actions have completed,
	// so debugOutput includes anything logged during teardown.
	TestFinished(id TestID, failed bool, debugOutput CapturedOutput)

	// TestSkipped is called instead of TestFinished for a test that was skipped or excluded
	// by the filter.
	TestSkipped(id TestID, reason string)
}

type nullTestLogger struct{}

func (n nullTestLogger) TestStarted(TestID)                        {}
func (n nullTestLogger) TestError(TestID, error)                   {}
func (n nullTestLogger) TestFinished(TestID, bool, CapturedOutput) {}
func (n nullTestLogger) TestSkipped(TestID, string)                {}
