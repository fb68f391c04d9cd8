// Package dockertests contains the container-module lifecycle tests and their supporting API.
//
// Which scenario runs depends on whether the environment can run containers, as determined
// once by the probe package before the suite starts. Infrastructure that is not specific to
// gateway modules, such as talking to the gateway and cleaning up what a test created, is in
// the lower-level framework package.
package dockertests
