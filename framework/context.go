package framework

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

type environment struct {
	ctx        context.Context
	results    Results
	testLogger TestLogger
	filter     Filter
}

type Context struct {
	env         *environment
	id          TestID
	debugLogger CapturingLogger
	deferred    []func()
	failed      bool
	skipped     bool
	skipReason  string
	errors      []error
}

// Run executes the top-level test action. The supplied context governs every request made
// on behalf of the tests; when it expires, requests fail, but deferred cleanup actions still run.
func Run(
	ctx context.Context,
	filter func(TestID) bool,
	testLogger TestLogger,
	action func(*Context),
) Results {
	if ctx == nil {
		ctx = context.Background()
	}
	if testLogger == nil {
		testLogger = nullTestLogger{}
	}
	env := &environment{
		ctx:        ctx,
		filter:     filter,
		testLogger: testLogger,
	}
	c := &Context{env: env}
	c.run(action)
	return env.results
}

func (c *Context) run(action func(*Context)) {
	defer func() {
		if r := recover(); r != nil {
			c.recordPanic(r)
		}
		c.runDeferred()
		result := TestResult{TestID: c.id, Errors: c.errors, Skipped: c.skipped}
		c.env.results.Tests = append(c.env.results.Tests, result)
		if c.failed {
			c.env.results.Failures = append(c.env.results.Failures, result)
		}
	}()

	action(c)
}

func (c *Context) recordPanic(r interface{}) {
	if c.skipped {
		return
	}
	c.failed = true
	var addError error
	if _, ok := r.(*Context); ok {
		if len(c.errors) == 0 {
			addError = errors.New("test failed with no failure message")
		}
	} else {
		addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
	}
	if addError != nil {
		c.errors = append(c.errors, addError)
		c.env.testLogger.TestError(c.id, addError)
	}
}

// runDeferred calls the actions registered with Defer, most recent first. A deferred action
// that fails the test does not prevent the remaining ones from running.
func (c *Context) runDeferred() {
	for len(c.deferred) > 0 {
		last := len(c.deferred) - 1
		fn := c.deferred[last]
		c.deferred = c.deferred[:last]
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.recordPanic(r)
				}
			}()
			fn()
		}()
	}
}

func (c *Context) ID() TestID {
	return c.id
}

// Ctx returns the context that requests made by this test should use.
func (c *Context) Ctx() context.Context {
	return c.env.ctx
}

func (c *Context) Run(name string, action func(*Context)) {
	id := TestID{Path: append(append([]string(nil), c.id.Path...), name)}

	c.env.testLogger.TestStarted(id)
	if c.env.filter != nil && !c.env.filter(id) {
		c.env.testLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}
	c1 := &Context{
		id:  id,
		env: c.env,
	}
	c1.run(action)
	if c1.skipped {
		c.env.testLogger.TestSkipped(id, c1.skipReason)
	} else {
		c.env.testLogger.TestFinished(id, c1.failed, c1.debugLogger.Output())
	}
}

// Defer schedules an action to run when the current test ends, whether it passed, failed,
// or panicked. This is where tests release anything they created in the service under test.
func (c *Context) Defer(action func()) {
	c.deferred = append(c.deferred, action)
}

func (c *Context) Errorf(format string, args ...interface{}) {
	c.failed = true
	err := fmt.Errorf(format, args...)
	c.errors = append(c.errors, err)
	c.env.testLogger.TestError(c.id, reformatError(err))
}

func (c *Context) FailNow() {
	panic(c)
}

func (c *Context) Failed() bool {
	return c.failed
}

func (c *Context) Skip() {
	c.skipped = true
	panic(c)
}

func (c *Context) SkipWithReason(reason string) {
	c.skipReason = reason
	c.Skip()
}

func (c *Context) Debug(message string, args ...interface{}) {
	c.debugLogger.Printf(message, args...)
}

func (c *Context) DebugLogger() Logger {
	return &c.debugLogger
}
