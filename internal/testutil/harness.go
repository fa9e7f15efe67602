package testutil

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/flowsim/internal/app"
	"github.com/specialistvlad/flowsim/internal/hcl_adapter"
)

// RunTimeout bounds a single headless run started by the harness.
const RunTimeout = 10 * time.Second

// LogRecord is one decoded JSON log line.
type LogRecord map[string]any

// Msg returns the record's message.
func (r LogRecord) Msg() string {
	s, _ := r["msg"].(string)
	return s
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Logs      []LogRecord
	FeedLines []string // the activity feed printed after the run, oldest first
	Err       error
	App       *app.App
}

// RunIntegrationTest writes files under a temporary directory, loads them over
// the built-in configuration and runs goal headless with a background context.
func RunIntegrationTest(t *testing.T, files map[string]string, goal string) *HarnessResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), RunTimeout)
	defer cancel()
	return RunIntegrationTestWithContext(ctx, t, files, goal, nil)
}

// RunIntegrationTestWithContext is RunIntegrationTest with a caller context
// and environment for `env.*` expressions.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, goal string, env map[string]string) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}
	if env == nil {
		env = map[string]string{}
	}

	cfg := &app.Config{
		ConfigPaths: []string{tmpDir},
		Goal:        goal,
		LogLevel:    "debug",
		LogFormat:   "json",
	}
	out := &app.SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(out, cfg, hcl_adapter.NewLoader(hcl_adapter.WithEnv(env)))
	}()

	var runErr error
	if panicErr != nil {
		runErr = fmt.Errorf("application startup panicked | %v", panicErr)
	} else {
		runErr = testApp.Run(ctx)
	}

	if os.Getenv("FLOWSIM_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
	}

	res := &HarnessResult{LogOutput: out.String(), Err: runErr, App: testApp}
	sc := bufio.NewScanner(strings.NewReader(res.LogOutput))
	for sc.Scan() {
		line := sc.Text()
		var rec LogRecord
		if strings.HasPrefix(line, "{") && json.Unmarshal([]byte(line), &rec) == nil {
			res.Logs = append(res.Logs, rec)
			continue
		}
		if line != "" {
			res.FeedLines = append(res.FeedLines, line)
		}
	}
	return res
}
