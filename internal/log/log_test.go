package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultFormatsKeyValues(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	l.Info("request", "method", "GET", "status", 200)
	assert.Contains(t, buf.String(), "INF request method=GET status=200")
}

func TestDefaultDebugRequiresVerbose(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	New(&buf, true).Debug("shown", "k", "v")
	assert.Contains(t, buf.String(), "DEB shown k=v")
}

func TestWithAppendsTags(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true).With("resource", "table")

	l.Error("save failed", "id", 7)
	assert.Contains(t, buf.String(), "ERR save failed id=7 resource=table")
}

func TestDiscardStaysDiscard(t *testing.T) {
	var l Logger = Discard{}
	l = l.With("k", "v")
	assert.Equal(t, Discard{}, l)
	l.Debug("x")
	l.Info("x")
	l.Error("x")
}

func TestRootHidesDebug(t *testing.T) {
	d, ok := Root.(*Default)
	if assert.True(t, ok) {
		assert.False(t, d.verbose)
	}
}
