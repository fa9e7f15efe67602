// Package config defines the format-agnostic configuration model for the
// application, along with the Loader interface for reading it from files.
//
// The `config.Model` is the single source of truth for the workflow graph,
// its timing and the transports around it. Concrete loaders, such as the HCL
// one, are provided in separate packages.
package config
