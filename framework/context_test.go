package framework

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTestLogger struct {
	started  []string
	errors   map[string][]error
	finished map[string]bool
	output   map[string]CapturedOutput
	skipped  map[string]string
	lock     sync.Mutex
}

func newRecordingTestLogger() *recordingTestLogger {
	return &recordingTestLogger{
		errors:   make(map[string][]error),
		finished: make(map[string]bool),
		output:   make(map[string]CapturedOutput),
		skipped:  make(map[string]string),
	}
}

func (r *recordingTestLogger) TestStarted(id TestID) {
	r.lock.Lock()
	r.started = append(r.started, id.String())
	r.lock.Unlock()
}

func (r *recordingTestLogger) TestError(id TestID, err error) {
	r.lock.Lock()
	r.errors[id.String()] = append(r.errors[id.String()], err)
	r.lock.Unlock()
}

func (r *recordingTestLogger) TestFinished(id TestID, failed bool, debugOutput CapturedOutput) {
	r.lock.Lock()
	r.finished[id.String()] = failed
	r.output[id.String()] = debugOutput
	r.lock.Unlock()
}

func (r *recordingTestLogger) TestSkipped(id TestID, reason string) {
	r.lock.Lock()
	r.skipped[id.String()] = reason
	r.lock.Unlock()
}

func runOne(action func(*Context)) (Results, *recordingTestLogger) {
	logger := newRecordingTestLogger()
	results := Run(context.Background(), nil, logger, func(c *Context) {
		c.Run("a", action)
	})
	return results, logger
}

func TestPassingTest(t *testing.T) {
	results, logger := runOne(func(c *Context) {
		c.Debug("hello %s", "there")
	})
	assert.True(t, results.OK())
	assert.Equal(t, []string{"a"}, logger.started)
	assert.Equal(t, false, logger.finished["a"])
	require.Len(t, logger.output["a"], 1)
	assert.Equal(t, "hello there", logger.output["a"][0].Message)
}

func TestFailNowStopsTestAndRunsDeferredActions(t *testing.T) {
	var calls []string
	results, logger := runOne(func(c *Context) {
		c.Defer(func() { calls = append(calls, "deferred") })
		require.Fail(c, "oops")
		calls = append(calls, "after FailNow")
	})
	assert.False(t, results.OK())
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "a", results.Failures[0].TestID.String())
	assert.Equal(t, []string{"deferred"}, calls)
	assert.True(t, logger.finished["a"])
	require.Len(t, logger.errors["a"], 1)
	assert.Contains(t, logger.errors["a"][0].Error(), "oops")
}

func TestDeferredActionsRunAfterPanic(t *testing.T) {
	ran := false
	results, logger := runOne(func(c *Context) {
		c.Defer(func() { ran = true })
		panic("boom")
	})
	assert.True(t, ran)
	require.Len(t, results.Failures, 1)
	require.Len(t, logger.errors["a"], 1)
	assert.Contains(t, logger.errors["a"][0].Error(), "unexpected panic in test: boom")
}

func TestDeferredActionsRunLastInFirstOut(t *testing.T) {
	var calls []int
	results, _ := runOne(func(c *Context) {
		c.Defer(func() { calls = append(calls, 1) })
		c.Defer(func() { calls = append(calls, 2) })
		c.Defer(func() { calls = append(calls, 3) })
	})
	assert.True(t, results.OK())
	assert.Equal(t, []int{3, 2, 1}, calls)
}

func TestFailingDeferredActionDoesNotStopOthers(t *testing.T) {
	ran := false
	results, _ := runOne(func(c *Context) {
		c.Defer(func() { ran = true })
		c.Defer(func() { require.Fail(c, "cleanup failed") })
	})
	assert.True(t, ran)
	require.Len(t, results.Failures, 1)
	assert.Len(t, results.Failures[0].Errors, 1)
}

func TestDeferredActionCanLogDebugOutput(t *testing.T) {
	_, logger := runOne(func(c *Context) {
		c.Defer(func() { c.Debug("cleaning up") })
	})
	require.Len(t, logger.output["a"], 1)
	assert.Equal(t, "cleaning up", logger.output["a"][0].Message)
}

func TestSkippedTest(t *testing.T) {
	ran := false
	results, logger := runOne(func(c *Context) {
		c.Defer(func() { ran = true })
		c.SkipWithReason("not today")
	})
	assert.True(t, results.OK())
	assert.True(t, ran)
	assert.Equal(t, "not today", logger.skipped["a"])
	_, finished := logger.finished["a"]
	assert.False(t, finished)

	var skipped []TestResult
	for _, r := range results.Tests {
		if r.Skipped {
			skipped = append(skipped, r)
		}
	}
	require.Len(t, skipped, 1)
	assert.Equal(t, "a", skipped[0].TestID.String())
}

func TestSubtestIDs(t *testing.T) {
	var ids []string
	Run(context.Background(), nil, nil, func(c *Context) {
		c.Run("outer", func(c *Context) {
			c.Run("first", func(c *Context) { ids = append(ids, c.ID().String()) })
			c.Run("second", func(c *Context) { ids = append(ids, c.ID().String()) })
		})
	})
	assert.Equal(t, []string{"outer/first", "outer/second"}, ids)
}

func TestFilterExcludesTest(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("^outer/second$"))

	var ran []string
	logger := newRecordingTestLogger()
	Run(context.Background(), filters.AsFilter, logger, func(c *Context) {
		c.Run("outer", func(c *Context) {
			c.Run("first", func(c *Context) { ran = append(ran, "first") })
			c.Run("second", func(c *Context) { ran = append(ran, "second") })
		})
	})
	assert.Equal(t, []string{"first"}, ran)
	assert.Equal(t, "excluded by filter parameters", logger.skipped["outer/second"])
}

func TestContextIsPassedToTests(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")
	var seen interface{}
	Run(ctx, nil, nil, func(c *Context) {
		c.Run("a", func(c *Context) { seen = c.Ctx().Value(key{}) })
	})
	assert.Equal(t, "value", seen)
}

func TestReformatErrorDropsTrace(t *testing.T) {
	err := errors.New("\n\tError Trace:\tfoo.go:12\n\t            \tbar.go:34\n\tError:      \tShould be true\n\tMessages:   \tsomething broke")
	assert.Equal(t, "Error: Should be true\nMessages: something broke", reformatError(err).Error())
}

func TestReformatErrorLeavesPlainMessages(t *testing.T) {
	assert.Equal(t, "plain message", reformatError(errors.New("plain message")).Error())
}
