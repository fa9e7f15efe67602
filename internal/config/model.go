package config

import "time"

// Model is the unified, format-agnostic representation of the application
// configuration.
type Model struct {
	Workflow *Workflow
	Server   Server
	Analysis Analysis
	NATS     NATS
	Activity Activity
}

// Workflow is the user's graph definition.
type Workflow struct {
	Name   string
	Timing Timing
	Nodes  []*Node
	Edges  []*Edge
}

// Timing holds the scheduler durations. Zero means the scheduler default.
type Timing struct {
	Dwell   time.Duration
	Stagger time.Duration
}

// Node is the format-agnostic representation of a `node` block.
type Node struct {
	ID          string
	Label       string
	Description []string
	DependsOn   []string
}

// Edge is the format-agnostic representation of an `edge` block.
type Edge struct {
	ID   string
	From string
	To   string
}

// Server configures the HTTP transports.
type Server struct {
	Listen string
}

// Analysis configures the optional external analysis service. An empty URL
// disables it.
type Analysis struct {
	URL     string
	Timeout time.Duration
}

// NATS configures the optional event bus bridge. An empty URL disables it.
type NATS struct {
	URL           string
	SubjectPrefix string
}

// Activity tunes the activity feed.
type Activity struct {
	Interval     time.Duration
	Capacity     int
	PrefixLength int
	Seed         uint64
}

// Default returns the settings used when no file overrides them. The
// workflow itself comes from the loader's built-in definition.
func Default() *Model {
	return &Model{
		Server:   Server{Listen: ":8080"},
		Analysis: Analysis{Timeout: 10 * time.Second},
		NATS:     NATS{SubjectPrefix: "flowsim"},
		Activity: Activity{
			Interval:     3 * time.Second,
			Capacity:     50,
			PrefixLength: 30,
		},
	}
}
