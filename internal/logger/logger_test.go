package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterFormatsKeyvals(t *testing.T) {
	var buf bytes.Buffer
	f := Writer(&buf, false)
	f(WarnLevel, "page missing", "file", "a.pdf", "page", 3)
	f(DebugLevel, "hidden")
	assert.Equal(t, "warn page missing file=a.pdf page=3\n", buf.String())
}

func TestDebugVerboseFlag(t *testing.T) {
	var got []string
	SetLogger(func(level LogLevel, msg string, keyvals ...interface{}) {
		got = append(got, msg)
		for _, kv := range keyvals {
			if _, ok := kv.(bool); ok {
				t.Errorf("trailing flag leaked into keyvals")
			}
		}
	})
	defer SetLogger(func(LogLevel, string, ...interface{}) {})

	SetVerbose(false)
	Debug("plain", "k", 1)
	Debug("noisy", "k", 2, true)
	SetVerbose(true)
	Debug("noisy again", true)
	SetVerbose(false)

	assert.Equal(t, []string{"plain", "noisy again"}, got)
}
