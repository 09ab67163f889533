package shell

import (
	"bytes"
	"strings"
)

// logWriter splits a byte stream into lines and hands each one to emit.
// A trailing partial line is emitted on Close.
type logWriter struct {
	emit func(string)
	buf  []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emitLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.emitLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) emitLine(line []byte) {
	w.emit(strings.TrimSuffix(string(line), "\r"))
}
