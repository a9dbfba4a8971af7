package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNopDoesNotPanic(t *testing.T) {
	var l Logger = Nop{}
	l.Debugf("x=%d", 1)
	l.Warnf("y=%s", "z")
}

func TestZerologWritesMessages(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	l.Debugf("hello %s", "world")

	assert.True(t, strings.Contains(buf.String(), "hello world"))
}

func TestZerologRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false) // info level: debug suppressed

	l.Debugf("should not appear")
	l.Warnf("should appear")

	out := buf.String()
	assert.False(t, strings.Contains(out, "should not appear"))
	assert.True(t, strings.Contains(out, "should appear"))
}
