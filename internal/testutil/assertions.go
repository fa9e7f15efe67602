package testutil

import (
	"fmt"
	"testing"
)

// Events returns the log records whose message is topic, in order.
func (r *HarnessResult) Events(topic string) []LogRecord {
	var out []LogRecord
	for _, rec := range r.Logs {
		if rec.Msg() == topic {
			out = append(out, rec)
		}
	}
	return out
}

// NodeTransitions returns "node:status" for every status change, in order.
func (r *HarnessResult) NodeTransitions() []string {
	var out []string
	for _, rec := range r.Events("node.status_changed") {
		out = append(out, fmt.Sprintf("%v:%v", rec["node"], rec["to"]))
	}
	return out
}

// AssertEventLogged fails the test unless an event with the given topic was
// logged with every attribute in attrs.
func AssertEventLogged(t *testing.T, result *HarnessResult, topic string, attrs map[string]any) {
	t.Helper()
	for _, rec := range result.Events(topic) {
		if matches(rec, attrs) {
			return
		}
	}
	t.Errorf("no %q event with attributes %v was logged", topic, attrs)
}

func matches(rec LogRecord, attrs map[string]any) bool {
	for k, want := range attrs {
		if fmt.Sprint(rec[k]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}
