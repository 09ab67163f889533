package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogWriter(t *testing.T) {
	var lines []string
	w := &logWriter{emit: func(s string) { lines = append(lines, s) }}

	_, _ = w.Write([]byte("first\r\nsec"))
	_, _ = w.Write([]byte("ond\n\nthi"))
	assert.Equal(t, []string{"first", "second", ""}, lines)

	_ = w.Close()
	assert.Equal(t, []string{"first", "second", "", "third"}, lines)

	_ = w.Close()
	assert.Len(t, lines, 4)
}
