package integrationtests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/flowsim/internal/testutil"
)

func TestConfig_LaterFilesReplaceTheWorkflow(t *testing.T) {
	first := testutil.WorkflowHCL("first", "10ms", "20ms", testutil.Node{ID: "old"})
	second := testutil.WorkflowHCL("second", "10ms", "20ms", testutil.Node{ID: "new"})

	result := testutil.RunIntegrationTest(t, map[string]string{
		"a.hcl": first,
		"b.hcl": second + fastActivity,
	}, "Pick the newest")
	require.NoError(t, result.Err)

	assert.Equal(t, "second", result.App.Model().Workflow.Name)
	assert.Equal(t, []string{"new:running", "new:success"}, progress(result))
}

func TestConfig_TimingFromEnvironment(t *testing.T) {
	wf := `
workflow "env" {
  timing {
    dwell   = env.FLOWSIM_DWELL
    stagger = "${env.FLOWSIM_STAGGER_MS}ms"
  }
  node "only" {
    description = ["• Works"]
  }
}
` + fastActivity

	ctx, cancel := context.WithTimeout(context.Background(), testutil.RunTimeout)
	defer cancel()
	result := testutil.RunIntegrationTestWithContext(ctx, t, map[string]string{"main.hcl": wf}, "Read the env",
		map[string]string{"FLOWSIM_DWELL": "15ms", "FLOWSIM_STAGGER_MS": "25"})
	require.NoError(t, result.Err)

	timing := result.App.Model().Workflow.Timing
	assert.Equal(t, 15*time.Millisecond, timing.Dwell)
	assert.Equal(t, 25*time.Millisecond, timing.Stagger)
	assert.Equal(t, []string{"only:running", "only:success"}, progress(result))
}

func TestConfig_InvalidWorkflowsAreRejected(t *testing.T) {
	tests := []struct {
		name    string
		hcl     string
		wantErr string
	}{
		{
			name: "cycle",
			hcl: testutil.WorkflowHCL("cycle", "10ms", "10ms",
				testutil.Node{ID: "a", DependsOn: []string{"b"}},
				testutil.Node{ID: "b", DependsOn: []string{"a"}},
			),
			wantErr: "failed to build workflow graph",
		},
		{
			name: "unknown dependency",
			hcl: testutil.WorkflowHCL("dangling", "10ms", "10ms",
				testutil.Node{ID: "a", DependsOn: []string{"ghost"}},
			),
			wantErr: `dangling edge: edge ghost->a references unknown source "ghost"`,
		},
		{
			name:    "bad duration",
			hcl:     testutil.WorkflowHCL("slow", "soon", "10ms", testutil.Node{ID: "a"}),
			wantErr: "dwell",
		},
		{
			name:    "syntax",
			hcl:     `workflow "broken" {`,
			wantErr: "failed to load configuration",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": tc.hcl}, "Anything")
			require.Error(t, result.Err)
			assert.ErrorContains(t, result.Err, "application startup panicked")
			assert.ErrorContains(t, result.Err, tc.wantErr)
		})
	}
}

func TestHeadless_ContextCancelStopsRun(t *testing.T) {
	wf := testutil.WorkflowHCL("slow", "1h", "1h",
		testutil.Node{ID: "wait"},
		testutil.Node{ID: "never", DependsOn: []string{"wait"}},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	result := testutil.RunIntegrationTestWithContext(ctx, t, map[string]string{"main.hcl": wf}, "Wait forever", nil)

	require.ErrorIs(t, result.Err, context.DeadlineExceeded)
	assert.Equal(t, []string{"wait:running"}, progress(result))
	testutil.AssertEventLogged(t, result, "run.cancelled", nil)
	assert.Empty(t, result.FeedLines)
}
