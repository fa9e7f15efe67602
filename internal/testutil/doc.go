// Package testutil runs the whole application headless against HCL written
// to a temporary directory and exposes the resulting event log for
// assertions. It is shared by the integration test suites.
package testutil
