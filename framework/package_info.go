// Package framework contains the low-level implementation of test harness infrastructure
// that can be reused for different kinds of gateway tests.
//
// The general model is:
//
// 1. The test harness communicates with a gateway, which exposes a status resource (GET) and
// collections in which entities can be created (POST). Every created entity is reported by a
// Location header and can later be deleted (DELETE).
//
// 2. Each test records the locations of the entities it creates in a Ledger. When the test
// ends, however it ends, the ledger is drained so that the gateway is left as it was found.
//
// 3. There is a general notion of a test context which is similar to Go's *testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results.
//
// The domain-specific code that knows what is being tested is responsible for providing
// the entities to send to the gateway and a domain-specific test API on top of the test
// context.
package framework
