// Package hcl_adapter loads the application configuration from HCL files
// into a config.Model.
//
// A configuration is built in layers: the embedded default.hcl first, then
// every .hcl file found under the given paths, in order. Setting blocks
// (server, analysis, nats, activity) override only the attributes they set.
// A workflow block replaces the whole workflow.
//
// Every attribute is an expression evaluated against a context exposing the
// process environment as `env`, so `listen = env.FLOWSIM_LISTEN` works.
package hcl_adapter
