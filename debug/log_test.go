package debug

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogWritesWhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	Log("theory", "unknown root %q", "H")

	assert := assert.New(t)
	assert.True(Enabled())
	assert.Contains(buf.String(), "Debug logging started")
	assert.Contains(buf.String(), `theory     unknown root "H"`)
}

func TestLogSilentWhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	Disable()

	Log("theory", "dropped")
	assert.False(t, Enabled())
	assert.NotContains(t, buf.String(), "dropped")
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	for i := 0; i < 6; i++ {
		LogEvery(3, "clock", "tick")
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "tick (every 3"))
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	EnableWriter(&buf)
	defer Disable()

	n, err := Writer("http").Write([]byte("GET /health 200\n"))
	assert.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Contains(t, buf.String(), "http       GET /health 200\n")
}
