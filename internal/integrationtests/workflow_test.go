package integrationtests

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/flowsim/internal/testutil"
)

const fastActivity = `
activity {
  interval = "5ms"
  seed     = 11
}
`

// progress drops the pending resets so only forward transitions remain.
func progress(r *testutil.HarnessResult) []string {
	var out []string
	for _, tr := range r.NodeTransitions() {
		if !strings.HasSuffix(tr, ":pending") {
			out = append(out, tr)
		}
	}
	return out
}

func TestHeadless_ChainRunsInDependencyOrder(t *testing.T) {
	wf := testutil.WorkflowHCL("chain", "10ms", "20ms",
		testutil.Node{ID: "fetch"},
		testutil.Node{ID: "parse", DependsOn: []string{"fetch"}},
		testutil.Node{ID: "store", DependsOn: []string{"parse"}},
	)

	result := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": wf + fastActivity}, "Index the archive")
	require.NoError(t, result.Err)

	assert.Equal(t, []string{
		"fetch:running", "fetch:success",
		"parse:running", "parse:success",
		"store:running", "store:success",
	}, progress(result))
	testutil.AssertEventLogged(t, result, "run.started", nil)
	testutil.AssertEventLogged(t, result, "run.completed", nil)
	assert.Len(t, result.Events("edge.activated"), 2)
}

func TestHeadless_FanInWaitsForEveryBranch(t *testing.T) {
	wf := testutil.WorkflowHCL("fan", "10ms", "20ms",
		testutil.Node{ID: "root"},
		testutil.Node{ID: "a", DependsOn: []string{"root"}},
		testutil.Node{ID: "b", DependsOn: []string{"root"}},
		testutil.Node{ID: "c", DependsOn: []string{"root"}},
		testutil.Node{ID: "join", DependsOn: []string{"a", "b", "c"}},
	)

	result := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": wf + fastActivity}, "Merge the reports")
	require.NoError(t, result.Err)

	got := progress(result)
	require.Len(t, got, 10)
	assert.Equal(t, []string{"root:running", "root:success"}, got[:2])
	assert.ElementsMatch(t, []string{"a:running", "b:running", "c:running"}, got[2:5])
	assert.ElementsMatch(t, []string{"a:success", "b:success", "c:success"}, got[5:8])
	assert.Equal(t, []string{"join:running", "join:success"}, got[8:])

	// Every edge into join is activated once join starts.
	for _, from := range []string{"a", "b", "c"} {
		testutil.AssertEventLogged(t, result, "node.status_changed", map[string]any{"node": from, "to": "success"})
	}
	assert.Len(t, result.Events("edge.activated"), 6)
}

func TestHeadless_PrintsActivityFeed(t *testing.T) {
	wf := testutil.WorkflowHCL("feed", "30ms", "40ms",
		testutil.Node{ID: "scout"},
		testutil.Node{ID: "report", DependsOn: []string{"scout"}},
	)

	result := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": wf + fastActivity}, "Reconciliation of quarterly stock ledgers")
	require.NoError(t, result.Err)
	require.NotEmpty(t, result.FeedLines)

	last := result.FeedLines[len(result.FeedLines)-1]
	assert.Contains(t, last, "[success] system: Workflow completed: Reconciliation of quarterly st...")
	for _, line := range result.FeedLines[:len(result.FeedLines)-1] {
		assert.Regexp(t, `^\d{2}:\d{2}:\d{2} \[(info|success|warning|error)\] (scout|report): `, line)
	}
	assert.NotEmpty(t, result.Events("log.appended"))
}
