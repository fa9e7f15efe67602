package activitylog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/flowsim/internal/node"
)

var epoch = time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC)

func TestFeed_KeepsNewestFifty(t *testing.T) {
	f := NewFeed(0)
	require.Equal(t, DefaultCapacity, f.Cap())

	for i := 1; i <= 60; i++ {
		f.Add(epoch.Add(time.Duration(i)*time.Second), "n", "m", node.SeverityInfo)
		require.LessOrEqual(t, f.Len(), 50)
	}

	entries := f.Entries()
	require.Len(t, entries, 50)
	for i, e := range entries {
		assert.Equal(t, uint64(60-i), e.ID)
	}
	assert.Equal(t, epoch.Add(60*time.Second), entries[0].Timestamp)
}

func TestFeed_EntriesIsACopy(t *testing.T) {
	f := NewFeed(3)
	f.Add(epoch, "a", "one", node.SeverityInfo)

	got := f.Entries()
	got[0].Message = "changed"
	assert.Equal(t, "one", f.Entries()[0].Message)
}

func TestFeed_SmallCapacity(t *testing.T) {
	f := NewFeed(2)
	f.Add(epoch, "a", "1", node.SeverityInfo)
	f.Add(epoch, "b", "2", node.SeverityWarning)
	e := f.Add(epoch, "c", "3", node.SeverityError)

	assert.Equal(t, uint64(3), e.ID)
	var msgs []string
	for _, e := range f.Entries() {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, "3,2", strings.Join(msgs, ","))
}

func TestTruncate(t *testing.T) {
	forty := strings.Repeat("abcdefghij", 4)
	thirty := forty[:30]

	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"forty chars are cut to thirty plus marker", forty, 30, thirty + Ellipsis},
		{"exactly thirty is unchanged", thirty, 30, thirty},
		{"short is unchanged", "Plan launch", 30, "Plan launch"},
		{"empty", "", 30, ""},
		{"counts runes not bytes", "héllo wörld", 5, "héllo" + Ellipsis},
		{"zero prefix", "abc", 0, Ellipsis},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Truncate(tc.in, tc.n))
		})
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Processing task: Ship: now", ProcessingMessage("Ship: now", 30))
	assert.Equal(t, "Workflow completed: Shi...", CompletedMessage("Ship: now", 3))
}
