package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldUseColor(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"plain file", nil, false},
		{"forced", map[string]string{"CLICOLOR_FORCE": "1"}, true},
		{"no color wins over force", map[string]string{"CLICOLOR_FORCE": "1", "NO_COLOR": "x"}, false},
		{"disabled", map[string]string{"CLICOLOR": "0"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range []string{"NO_COLOR", "CLICOLOR_FORCE", "CLICOLOR"} {
				t.Setenv(k, tc.env[k])
			}
			assert.Equal(t, tc.want, ShouldUseColor(f))
		})
	}
}
