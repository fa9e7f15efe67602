// Package app wires the simulator together: configuration, the event loop,
// scheduler, activity feed and transports. It either serves them over HTTP
// or runs a single goal headless, independent of the CLI that starts it.
package app
